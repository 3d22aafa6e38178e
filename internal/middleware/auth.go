package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const volunteerIDKey contextKey = "volunteer_id"

// VolunteerValidator validates volunteer session tokens
type VolunteerValidator interface {
	ValidateVolunteer(token string) (int64, error)
}

// AdminValidator validates admin tokens
type AdminValidator interface {
	Enabled() bool
	Validate(token string) error
}

// VolunteerSession requires a valid session token and stores the volunteer id in the context.
// When required is false requests pass through untouched.
func VolunteerSession(sessions VolunteerValidator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				respondError(w, err.Error(), http.StatusUnauthorized)
				return
			}

			volunteerID, err := sessions.ValidateVolunteer(token)
			if err != nil {
				respondError(w, "Invalid or expired session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), volunteerIDKey, volunteerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly requires an admin token when an admin password is configured
func AdminOnly(auth AdminValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			token, err := BearerToken(r)
			if err != nil {
				respondError(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if err := auth.Validate(token); err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetVolunteerID extracts the session volunteer id from context
func GetVolunteerID(ctx context.Context) (int64, bool) {
	volunteerID, ok := ctx.Value(volunteerIDKey).(int64)
	return volunteerID, ok
}

// BearerToken returns the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization header required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("Invalid authorization header format")
	}

	return strings.TrimSpace(parts[1]), nil
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
