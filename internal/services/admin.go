package services

import (
	"context"
	"time"

	"field-trip-backend/internal/ratelimit"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth checks the admin password and hands out admin credentials
type AdminAuth struct {
	passwordHash []byte
	sessions     *SessionIssuer
	limiter      ratelimit.Limiter
}

// NewAdminAuth creates admin auth. An empty hash leaves admin routes open.
func NewAdminAuth(passwordHash string, sessions *SessionIssuer, limiter ratelimit.Limiter) *AdminAuth {
	return &AdminAuth{
		passwordHash: []byte(passwordHash),
		sessions:     sessions,
		limiter:      limiter,
	}
}

// Enabled reports whether an admin password is configured
func (a *AdminAuth) Enabled() bool {
	return len(a.passwordHash) > 0
}

// Login checks password and returns an admin token with its expiry
func (a *AdminAuth) Login(ctx context.Context, password, clientIP string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, newError(ErrNotFound, "Admin login is not configured", nil)
	}
	if password == "" {
		return "", time.Time{}, newError(ErrInvalidInput, "Password is required", nil)
	}

	if a.limiter != nil {
		allowed, err := a.limiter.Allow(ctx, "admin:ip:"+clientIP)
		if err != nil {
			log.Warn().Err(err).Msg("Rate limiter unavailable, allowing admin login")
		} else if !allowed {
			return "", time.Time{}, newError(ErrRateLimited, "Too many login attempts. Please wait before trying again.", nil)
		}
	}

	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		log.Warn().Str("ip", clientIP).Msg("Failed admin login")
		return "", time.Time{}, newError(ErrUnauthenticated, "Invalid password", nil)
	}

	token, expiresAt, err := a.sessions.IssueAdmin()
	if err != nil {
		return "", time.Time{}, newError(ErrUpstream, "Failed to create admin session", err)
	}
	return token, expiresAt, nil
}

// Validate checks an admin token. Any token passes when no password is configured.
func (a *AdminAuth) Validate(token string) error {
	if !a.Enabled() {
		return nil
	}
	return a.sessions.ValidateAdmin(token)
}
