package handlers

import (
	"net/http"

	"field-trip-backend/internal/middleware"
	"field-trip-backend/internal/models"
	"field-trip-backend/internal/services"
)

// AlbumHandler handles album session requests
type AlbumHandler struct {
	albumService *services.AlbumService
}

// NewAlbumHandler creates a new album handler
func NewAlbumHandler(albumService *services.AlbumService) *AlbumHandler {
	return &AlbumHandler{
		albumService: albumService,
	}
}

// CreateAlbumRequest represents the request body for creating an album
type CreateAlbumRequest struct {
	VolunteerID flexID `json:"volunteerId"`
	DogName     string `json:"dogName"`
	Location    string `json:"location"`
	Blurb       string `json:"blurb"`
}

// CreateAlbumResponse is returned after an album is opened
type CreateAlbumResponse struct {
	Success    bool   `json:"success"`
	AlbumID    int64  `json:"albumId"`
	FolderName string `json:"folderName"`
}

// ActiveAlbumResponse wraps the active album, null when there is none
type ActiveAlbumResponse struct {
	Album *models.Album `json:"album"`
}

// CloseAlbumRequest represents the request body for closing an album
type CloseAlbumRequest struct {
	AlbumID flexID `json:"albumId"`
}

// Create handles POST /api/volunteer/album/create
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	volunteerID, ok := sessionVolunteer(w, r, int64(req.VolunteerID))
	if !ok {
		return
	}

	album, err := h.albumService.Create(r.Context(), services.CreateAlbumInput{
		VolunteerID: volunteerID,
		DogName:     req.DogName,
		Location:    req.Location,
		Blurb:       req.Blurb,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CreateAlbumResponse{
		Success:    true,
		AlbumID:    album.ID,
		FolderName: album.FolderName,
	})
}

// Active handles GET /api/volunteer/album/active/{volunteerId}
func (h *AlbumHandler) Active(w http.ResponseWriter, r *http.Request) {
	requested, ok := int64Param(r, "volunteerId")
	if !ok {
		respondError(w, "Invalid volunteer ID", http.StatusBadRequest)
		return
	}

	volunteerID, ok := sessionVolunteer(w, r, requested)
	if !ok {
		return
	}

	album, err := h.albumService.GetActive(r.Context(), volunteerID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ActiveAlbumResponse{Album: album})
}

// Close handles POST /api/volunteer/album/close
func (h *AlbumHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req CloseAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if req.AlbumID <= 0 {
		respondError(w, "Album ID is required", http.StatusBadRequest)
		return
	}

	ownerID, _ := middleware.GetVolunteerID(r.Context())
	if err := h.albumService.Close(r.Context(), int64(req.AlbumID), ownerID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// sessionVolunteer resolves the acting volunteer. With a session the requested id must be
// empty or match it; without a session the requested id is trusted.
func sessionVolunteer(w http.ResponseWriter, r *http.Request, requested int64) (int64, bool) {
	sessionID, hasSession := middleware.GetVolunteerID(r.Context())
	if !hasSession {
		return requested, true
	}
	if requested != 0 && requested != sessionID {
		respondError(w, "Session does not match volunteer", http.StatusUnauthorized)
		return 0, false
	}
	return sessionID, true
}
