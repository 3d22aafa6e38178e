package handlers

import (
	"net/http"

	"field-trip-backend/internal/middleware"
	"field-trip-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries everything the router mounts
type RouterConfig struct {
	Volunteers        *VolunteerHandler
	Albums            *AlbumHandler
	Uploads           *UploadHandler
	Admin             *AdminHandler
	WebSocket         *WebSocketHandler
	Health            *HealthHandler
	Sessions          *services.SessionIssuer
	AdminAuth         *services.AdminAuth
	RequireSession    bool
	AllowedOrigins    []string
	MaxJSONBytes      int64
	DisableRequestLog bool
}

// NewRouter builds the HTTP routes
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if !cfg.DisableRequestLog {
		r.Use(middleware.RequestLogger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// Uploads carry their own limit
	jsonBody := middleware.MaxBodySize(cfg.MaxJSONBytes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", cfg.Health.Health)

		r.Route("/volunteer", func(r chi.Router) {
			// Public routes
			r.With(jsonBody).Post("/request-access", cfg.Volunteers.RequestAccess)
			r.Get("/verify/{token}", cfg.Volunteers.Verify)

			// Session routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.VolunteerSession(cfg.Sessions, cfg.RequireSession))
				r.With(jsonBody).Post("/album/create", cfg.Albums.Create)
				r.Get("/album/active/{volunteerId}", cfg.Albums.Active)
				r.Post("/album/upload", cfg.Uploads.Upload)
				r.With(jsonBody).Post("/album/close", cfg.Albums.Close)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(jsonBody).Post("/login", cfg.Admin.Login)
			r.Get("/events", cfg.WebSocket.HandleWebSocket)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly(cfg.AdminAuth))
				r.Use(jsonBody)
				r.Get("/volunteers", cfg.Admin.ListVolunteers)
				r.Post("/volunteers", cfg.Admin.CreateVolunteer)
				r.Put("/volunteers/{id}", cfg.Admin.UpdateVolunteer)
				r.Patch("/volunteers/{id}/toggle", cfg.Admin.ToggleVolunteer)
				r.Delete("/volunteers/{id}", cfg.Admin.DeleteVolunteer)
				r.Get("/albums", cfg.Admin.ListAlbums)
				r.Get("/albums/{id}/uploads", cfg.Admin.ListAlbumUploads)
			})
		})
	})

	return r
}
