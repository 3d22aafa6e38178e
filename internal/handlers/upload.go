package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"field-trip-backend/internal/middleware"
	"field-trip-backend/internal/services"
)

// multipartOverhead is allowed on top of the file size for boundaries and form fields
const multipartOverhead = 1 << 20

// UploadHandler relays multipart uploads to storage
type UploadHandler struct {
	uploadService *services.UploadService
	memoryBytes   int64
}

// NewUploadHandler creates a new upload handler. memoryBytes is how much of a
// form is held in memory before spilling to temp files.
func NewUploadHandler(uploadService *services.UploadService, memoryBytes int64) *UploadHandler {
	if memoryBytes <= 0 {
		memoryBytes = 32 << 20
	}
	return &UploadHandler{
		uploadService: uploadService,
		memoryBytes:   memoryBytes,
	}
}

// UploadResponse is returned after a file is stored
type UploadResponse struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName"`
}

// Upload handles POST /api/volunteer/album/upload (multipart: albumId, file)
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.uploadService.MaxBytes()
	bodyLimit := maxBytes + multipartOverhead

	if r.ContentLength > bodyLimit {
		respondError(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)

	if err := r.ParseMultipartForm(h.memoryBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	albumID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("albumId")), 10, 64)
	if err != nil || albumID <= 0 {
		respondError(w, "Missing album ID or file", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "Missing album ID or file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxBytes {
		respondError(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	ownerID, _ := middleware.GetVolunteerID(r.Context())
	upload, err := h.uploadService.Upload(r.Context(), services.UploadInput{
		AlbumID:  albumID,
		OwnerID:  ownerID,
		File:     file,
		Size:     header.Size,
		FileName: filepath.Base(header.Filename),
		MimeType: contentType(header.Header.Get("Content-Type"), header.Filename),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, UploadResponse{Success: true, FileName: upload.FileName})
}

// contentType prefers the part header and falls back to the file extension
func contentType(partType, fileName string) string {
	if partType != "" && partType != "application/octet-stream" {
		return partType
	}
	if byExt := mime.TypeByExtension(filepath.Ext(fileName)); byExt != "" {
		return byExt
	}
	if partType != "" {
		return partType
	}
	return "application/octet-stream"
}
