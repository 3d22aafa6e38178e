package handlers

import (
	"net/http"
	"time"

	"field-trip-backend/internal/models"
	"field-trip-backend/internal/ratelimit"
	"field-trip-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AdminHandler handles the admin surface
type AdminHandler struct {
	volunteerService *services.VolunteerService
	albumService     *services.AlbumService
	uploadService    *services.UploadService
	adminAuth        *services.AdminAuth
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	volunteerService *services.VolunteerService,
	albumService *services.AlbumService,
	uploadService *services.UploadService,
	adminAuth *services.AdminAuth,
) *AdminHandler {
	return &AdminHandler{
		volunteerService: volunteerService,
		albumService:     albumService,
		uploadService:    uploadService,
		adminAuth:        adminAuth,
	}
}

// LoginRequest represents the admin login body
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the admin token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VolunteerResponse wraps a saved volunteer
type VolunteerResponse struct {
	Success   bool              `json:"success"`
	Volunteer *models.Volunteer `json:"volunteer"`
}

// ToggleResponse carries the new volunteer status
type ToggleResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	token, expiresAt, err := h.adminAuth.Login(r.Context(), req.Password, ratelimit.ClientIP(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().Str("ip", ratelimit.ClientIP(r)).Msg("Admin logged in")
	respondJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// ListVolunteers handles GET /api/admin/volunteers
func (h *AdminHandler) ListVolunteers(w http.ResponseWriter, r *http.Request) {
	volunteers, err := h.volunteerService.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"volunteers": volunteers})
}

// CreateVolunteer handles POST /api/admin/volunteers
func (h *AdminHandler) CreateVolunteer(w http.ResponseWriter, r *http.Request) {
	var req services.VolunteerInput
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	volunteer, err := h.volunteerService.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().Int64("volunteer_id", volunteer.ID).Msg("Volunteer created")
	respondJSON(w, http.StatusOK, VolunteerResponse{Success: true, Volunteer: volunteer})
}

// UpdateVolunteer handles PUT /api/admin/volunteers/{id}
func (h *AdminHandler) UpdateVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		respondError(w, "Invalid volunteer ID", http.StatusBadRequest)
		return
	}

	var req services.VolunteerInput
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	volunteer, err := h.volunteerService.Update(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, VolunteerResponse{Success: true, Volunteer: volunteer})
}

// ToggleVolunteer handles PATCH /api/admin/volunteers/{id}/toggle
func (h *AdminHandler) ToggleVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		respondError(w, "Invalid volunteer ID", http.StatusBadRequest)
		return
	}

	status, err := h.volunteerService.Toggle(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ToggleResponse{Success: true, Status: status})
}

// DeleteVolunteer handles DELETE /api/admin/volunteers/{id}
func (h *AdminHandler) DeleteVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		respondError(w, "Invalid volunteer ID", http.StatusBadRequest)
		return
	}

	if err := h.volunteerService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().Int64("volunteer_id", id).Msg("Volunteer deleted")
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ListAlbums handles GET /api/admin/albums
func (h *AdminHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.albumService.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"albums": albums})
}

// ListAlbumUploads handles GET /api/admin/albums/{id}/uploads
func (h *AdminHandler) ListAlbumUploads(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		respondError(w, "Invalid album ID", http.StatusBadRequest)
		return
	}

	uploads, err := h.uploadService.ListByAlbum(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"uploads": uploads})
}
