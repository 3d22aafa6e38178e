package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"field-trip-backend/internal/config"
	"field-trip-backend/internal/handlers"
	"field-trip-backend/internal/notify"
	"field-trip-backend/internal/ratelimit"
	"field-trip-backend/internal/repository"
	"field-trip-backend/internal/services"
	"field-trip-backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	// Connect to database
	db, err := repository.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Initialize repositories
	volunteerRepo := repository.NewVolunteerRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	albumRepo := repository.NewAlbumRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	// External collaborators
	folders, err := newFolderStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Storage.Provider).Msg("Failed to create storage client")
	}

	notifier := newNotifier(cfg)

	limits, closeLimiters := newLimiters(ctx, cfg)
	defer closeLimiters()

	sessions := services.NewSessionIssuer(cfg.JWT.Secret, cfg.Session.TTL, cfg.Admin.TokenTTL)
	adminAuth := services.NewAdminAuth(cfg.Admin.PasswordHash, sessions, limits.Phone)
	if !adminAuth.Enabled() {
		log.Warn().Msg("No admin password hash configured, admin routes are open")
	}
	if !cfg.Session.Require {
		log.Warn().Msg("Session credentials are not required on album routes")
	}

	hub := services.NewEventHub()

	// Initialize services
	accessService := services.NewAccessService(volunteerRepo, tokenRepo, notifier, sessions, limits, hub, services.AccessConfig{
		TokenTTL:                   cfg.Access.TokenTTL,
		PublicURL:                  cfg.Server.PublicURL,
		NotifyTimeout:              cfg.Access.NotifyTimeout,
		ExposeTokenOnNotifyFailure: cfg.Access.ExposeTokenOnNotifyFailure,
	})
	if cfg.Access.ExposeTokenOnNotifyFailure {
		log.Warn().Msg("Access tokens are returned to callers when delivery fails")
	}
	volunteerService := services.NewVolunteerService(volunteerRepo, hub)
	albumService := services.NewAlbumService(albumRepo, volunteerRepo, folders, hub, cfg.Storage.RootFolderID, cfg.Access.AlbumWindow)
	uploadService := services.NewUploadService(albumRepo, uploadRepo, folders, hub, cfg.Upload.MaxBytes)

	// Initialize handlers and router
	router := handlers.NewRouter(handlers.RouterConfig{
		Volunteers:     handlers.NewVolunteerHandler(accessService),
		Albums:         handlers.NewAlbumHandler(albumService),
		Uploads:        handlers.NewUploadHandler(uploadService, cfg.Upload.MemoryBytes),
		Admin:          handlers.NewAdminHandler(volunteerService, albumService, uploadService, adminAuth),
		WebSocket:      handlers.NewWebSocketHandler(hub, adminAuth),
		Health:         handlers.NewHealthHandler(db),
		Sessions:       sessions,
		AdminAuth:      adminAuth,
		RequireSession: cfg.Session.Require,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Uploads stream through the server, so writes get a long deadline
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("storage", cfg.Storage.Provider).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked websocket connections are not closed by Shutdown
	hub.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func newFolderStore(ctx context.Context, cfg *config.Config) (storage.FolderStore, error) {
	switch cfg.Storage.Provider {
	case config.StorageDrive:
		return storage.NewDriveStore(ctx, storage.DriveConfig{
			ClientID:     cfg.Drive.ClientID,
			ClientSecret: cfg.Drive.ClientSecret,
			RedirectURI:  cfg.Drive.RedirectURI,
			RefreshToken: cfg.Drive.RefreshToken,
		})
	default:
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:       cfg.AWS.Region,
			Bucket:       cfg.AWS.S3Bucket,
			AccessKey:    cfg.AWS.AccessKey,
			SecretKey:    cfg.AWS.SecretKey,
			Endpoint:     cfg.AWS.Endpoint,
			UsePathStyle: cfg.AWS.UsePathStyle,
		})
	}
}

func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Email.SMTPHost == "" {
		log.Warn().Msg("No SMTP host configured, access links will only be logged")
		return notify.LogNotifier{}
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:       cfg.Email.SMTPHost,
		Port:       cfg.Email.SMTPPort,
		Username:   cfg.Email.Username,
		Password:   cfg.Email.Password,
		FromAddr:   cfg.Email.FromAddress,
		FromName:   cfg.Email.FromName,
		Encryption: cfg.Email.Encryption,
	})
}

// newLimiters prefers Redis so limits hold across instances, and falls back to memory.
// The phone limiter also guards admin logins.
func newLimiters(ctx context.Context, cfg *config.Config) (services.AccessLimits, func()) {
	rl := cfg.RateLimit
	memory := services.AccessLimits{
		Phone: ratelimit.NewMemory(rl.Requests, rl.Window),
		IP:    ratelimit.NewMemory(rl.IPRequests, rl.Window),
	}
	if rl.RedisURL == "" {
		return memory, func() {}
	}

	phone, err := ratelimit.NewRedis(rl.RedisURL, rl.Requests, rl.Window)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid redis URL")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := phone.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("Redis not reachable, using in-memory rate limiting")
		phone.Close()
		return memory, func() {}
	}

	log.Info().Msg("Rate limiting backed by redis")
	limits := services.AccessLimits{
		Phone: phone,
		IP:    phone.WithLimit(rl.IPRequests),
	}
	return limits, func() {
		if err := phone.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if strings.EqualFold(format, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
