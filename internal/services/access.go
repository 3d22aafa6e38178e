package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"field-trip-backend/internal/models"
	"field-trip-backend/internal/notify"
	"field-trip-backend/internal/ratelimit"
	"field-trip-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const tokenBytes = 32

// AccessConfig holds access link settings
type AccessConfig struct {
	TokenTTL      time.Duration
	PublicURL     string
	NotifyTimeout time.Duration
	// ExposeTokenOnNotifyFailure hands the raw token back when the link could not be delivered
	ExposeTokenOnNotifyFailure bool
}

// IssueResult is returned to a volunteer who requested a link
type IssueResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// VerifyResult is returned once a link has been consumed
type VerifyResult struct {
	Valid        bool                    `json:"valid"`
	Volunteer    models.VolunteerProfile `json:"volunteer"`
	SessionToken string                  `json:"sessionToken,omitempty"`
	ExpiresAt    *time.Time              `json:"expiresAt,omitempty"`
}

// AccessLimits rate limits issue requests per phone number and per client address.
// Many volunteers can share one address, so the address limit should be the looser one.
// Either limiter may be nil.
type AccessLimits struct {
	Phone ratelimit.Limiter
	IP    ratelimit.Limiter
}

// AccessService issues and verifies one-time access links
type AccessService struct {
	volunteers VolunteerStore
	tokens     TokenStore
	notifier   notify.Notifier
	sessions   *SessionIssuer
	limits     AccessLimits
	events     EventPublisher
	cfg        AccessConfig
	now        func() time.Time
}

// NewAccessService creates a new access service. sessions may be nil to run without
// session credentials.
func NewAccessService(
	volunteers VolunteerStore,
	tokens TokenStore,
	notifier notify.Notifier,
	sessions *SessionIssuer,
	limits AccessLimits,
	events EventPublisher,
	cfg AccessConfig,
) *AccessService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 15 * time.Second
	}
	return &AccessService{
		volunteers: volunteers,
		tokens:     tokens,
		notifier:   notifier,
		sessions:   sessions,
		limits:     limits,
		events:     publisherOrNop(events),
		cfg:        cfg,
		now:        time.Now,
	}
}

// Issue creates a one-time token for the enabled volunteer owning phone and sends the link.
// Unknown and disabled numbers fail the same way.
func (s *AccessService) Issue(ctx context.Context, phone, clientIP string) (*IssueResult, error) {
	digits, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	if err := s.checkRate(ctx, s.limits.Phone, "access:phone:"+digits); err != nil {
		return nil, err
	}
	if err := s.checkRate(ctx, s.limits.IP, "access:ip:"+clientIP); err != nil {
		return nil, err
	}

	volunteer, err := s.volunteers.GetEnabledByPhone(ctx, digits)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotAuthorized, "Volunteer not found or not authorized", nil)
		}
		return nil, newError(ErrUpstream, "Database error", err)
	}
	if !volunteer.Enabled() {
		return nil, newError(ErrNotAuthorized, "Volunteer not found or not authorized", nil)
	}

	tokenString, err := generateToken()
	if err != nil {
		return nil, newError(ErrUpstream, "Failed to generate access token", err)
	}

	now := s.now()
	token := &models.AccessToken{
		Token:       tokenString,
		VolunteerID: volunteer.ID,
		ExpiresAt:   now.Add(s.cfg.TokenTTL),
		CreatedAt:   now,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, newError(ErrUpstream, "Failed to generate access token", err)
	}

	s.events.Publish(Event{
		Type: EventAccessRequested,
		Data: map[string]interface{}{"volunteer_id": volunteer.ID, "volunteer_name": volunteer.Name},
	})

	notifyCtx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()

	err = s.notifier.Send(notifyCtx, notify.Message{
		To:            volunteer.Email,
		Token:         tokenString,
		VolunteerName: volunteer.Name,
		Phone:         volunteer.Phone,
		Link:          s.accessLink(tokenString),
	})
	if err == nil {
		log.Info().Int64("volunteer_id", volunteer.ID).Msg("Access link sent")
		return &IssueResult{Success: true, Message: "Access link sent to your email"}, nil
	}

	if s.cfg.ExposeTokenOnNotifyFailure {
		log.Warn().
			Err(err).
			Int64("volunteer_id", volunteer.ID).
			Msg("Access link not delivered, returning token to caller")
		return &IssueResult{Success: true, Token: tokenString, Message: "Access granted"}, nil
	}

	return nil, newError(ErrUpstream, "Could not deliver access link", err)
}

// Verify consumes a token and returns the owner's profile with a session credential.
// Unknown, expired and used tokens fail the same way.
func (s *AccessService) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, newError(ErrInvalidOrExpiredToken, "Invalid or expired token", nil)
	}

	volunteer, err := s.tokens.Consume(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrInvalidOrExpiredToken, "Invalid or expired token", nil)
		}
		return nil, newError(ErrUpstream, "Database error", err)
	}

	result := &VerifyResult{
		Valid:     true,
		Volunteer: volunteer.Profile(),
	}

	if s.sessions != nil {
		sessionToken, expiresAt, err := s.sessions.IssueVolunteer(volunteer.ID)
		if err != nil {
			return nil, newError(ErrUpstream, "Failed to create session", err)
		}
		result.SessionToken = sessionToken
		result.ExpiresAt = &expiresAt
	}

	s.events.Publish(Event{
		Type: EventAccessVerified,
		Data: map[string]interface{}{"volunteer_id": volunteer.ID, "volunteer_name": volunteer.Name},
	})

	return result, nil
}

func (s *AccessService) checkRate(ctx context.Context, limiter ratelimit.Limiter, key string) error {
	if limiter == nil {
		return nil
	}
	allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Rate limiter unavailable, allowing request")
		return nil
	}
	if !allowed {
		return newError(ErrRateLimited, "Too many requests. Please try again later.", nil)
	}
	return nil
}

func (s *AccessService) accessLink(token string) string {
	return fmt.Sprintf("%s/access/%s", strings.TrimSuffix(s.cfg.PublicURL, "/"), token)
}

// generateToken returns 32 random bytes hex encoded
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
