package services

import (
	"errors"
	"testing"
)

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := newError(ErrUpstream, "Database error", cause)

	if !errors.Is(err, ErrUpstream) {
		t.Error("expected kind to match")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to match")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("unexpected kind match")
	}
	if err.Error() != "Database error: connection refused" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if newError(ErrNotFound, "Album not found", nil).Error() != "Album not found" {
		t.Error("message without cause should be the bare message")
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"5551234567", "5551234567", false},
		{"(555) 123-4567", "5551234567", false},
		{" 555.123.4567 ", "5551234567", false},
		{"", "", true},
		{"555123456", "", true},
		{"+1 555 123 4567", "", true},
		{"phone", "", true},
		{"５５５１２３４５６７", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("NormalizePhone(%q) expected invalid input, got %q, %v", tt.in, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	for in, want := range map[string]string{
		"":         "enabled",
		"enabled":  "enabled",
		"on":       "enabled",
		"Disabled": "disabled",
		"off":      "disabled",
	} {
		got, err := normalizeStatus(in)
		if err != nil || got != want {
			t.Errorf("normalizeStatus(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := normalizeStatus("paused"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}
