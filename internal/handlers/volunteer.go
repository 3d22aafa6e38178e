package handlers

import (
	"net/http"

	"field-trip-backend/internal/ratelimit"
	"field-trip-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// VolunteerHandler handles the access link flow
type VolunteerHandler struct {
	accessService *services.AccessService
}

// NewVolunteerHandler creates a new volunteer handler
func NewVolunteerHandler(accessService *services.AccessService) *VolunteerHandler {
	return &VolunteerHandler{
		accessService: accessService,
	}
}

// RequestAccessRequest represents the request body for requesting an access link
type RequestAccessRequest struct {
	Phone string `json:"phone"`
}

// RequestAccess handles POST /api/volunteer/request-access
func (h *VolunteerHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	var req RequestAccessRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	result, err := h.accessService.Issue(r.Context(), req.Phone, ratelimit.ClientIP(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Verify handles GET /api/volunteer/verify/{token}
func (h *VolunteerHandler) Verify(w http.ResponseWriter, r *http.Request) {
	result, err := h.accessService.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().
		Int64("volunteer_id", result.Volunteer.ID).
		Msg("Access token verified")

	respondJSON(w, http.StatusOK, result)
}
