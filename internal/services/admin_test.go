package services

import (
	"context"
	"testing"
	"time"

	"field-trip-backend/internal/ratelimit"

	"golang.org/x/crypto/bcrypt"
)

func TestAdminAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	sessions := NewSessionIssuer("secret", time.Hour, time.Hour)
	auth := NewAdminAuth(string(hash), sessions, nil)

	if !auth.Enabled() {
		t.Fatal("expected auth to be enabled")
	}

	_, _, err = auth.Login(context.Background(), "wrong", "ip")
	assertKind(t, err, ErrUnauthenticated)

	_, _, err = auth.Login(context.Background(), "", "ip")
	assertKind(t, err, ErrInvalidInput)

	token, _, err := auth.Login(context.Background(), "hunter2", "ip")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := auth.Validate(token); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if err := auth.Validate("bogus"); err == nil {
		t.Error("bogus token should be rejected")
	}
}

func TestAdminAuth_Disabled(t *testing.T) {
	auth := NewAdminAuth("", NewSessionIssuer("secret", time.Hour, time.Hour), nil)

	if auth.Enabled() {
		t.Fatal("expected auth to be disabled")
	}
	if err := auth.Validate(""); err != nil {
		t.Errorf("open admin should accept any request: %v", err)
	}
	_, _, err := auth.Login(context.Background(), "anything", "ip")
	assertKind(t, err, ErrNotFound)
}

func TestAdminAuth_RateLimited(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	auth := NewAdminAuth(string(hash), NewSessionIssuer("secret", time.Hour, time.Hour), ratelimit.NewMemory(1, time.Minute))

	auth.Login(context.Background(), "wrong", "203.0.113.9")
	_, _, err := auth.Login(context.Background(), "hunter2", "203.0.113.9")
	assertKind(t, err, ErrRateLimited)
}
