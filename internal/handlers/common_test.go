package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"field-trip-backend/internal/services"
)

func TestFlexID(t *testing.T) {
	tests := []struct {
		in      string
		want    flexID
		wantErr bool
	}{
		{`{"id": 42}`, 42, false},
		{`{"id": "42"}`, 42, false},
		{`{"id": ""}`, 0, false},
		{`{"id": null}`, 0, false},
		{`{}`, 0, false},
		{`{"id": "abc"}`, 0, true},
		{`{"id": 1.5}`, 0, true},
	}

	for _, tt := range tests {
		var body struct {
			ID flexID `json:"id"`
		}
		err := json.Unmarshal([]byte(tt.in), &body)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && body.ID != tt.want {
			t.Errorf("%s: got %d, want %d", tt.in, body.ID, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		part, name, want string
	}{
		{"image/png", "a.jpg", "image/png"},
		{"application/octet-stream", "a.jpg", "image/jpeg"},
		{"", "a.png", "image/png"},
		{"application/octet-stream", "noext", "application/octet-stream"},
		{"", "noext", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := contentType(tt.part, tt.name); got != tt.want {
			t.Errorf("contentType(%q, %q) = %q, want %q", tt.part, tt.name, got, tt.want)
		}
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		kind error
		want int
	}{
		{services.ErrInvalidInput, http.StatusBadRequest},
		{services.ErrConflict, http.StatusBadRequest},
		{services.ErrNotAuthorized, http.StatusNotFound},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrUnauthenticated, http.StatusUnauthorized},
		{services.ErrInvalidOrExpiredToken, http.StatusUnauthorized},
		{services.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{services.ErrRateLimited, http.StatusTooManyRequests},
		{services.ErrUpstream, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := &services.Error{Kind: tt.kind, Message: "x"}
		if got := statusForError(err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
