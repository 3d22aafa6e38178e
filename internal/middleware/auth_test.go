package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"field-trip-backend/internal/middleware"
)

type fakeSessions map[string]int64

func (f fakeSessions) ValidateVolunteer(token string) (int64, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid")
}

type fakeAdmin struct {
	enabled bool
	token   string
}

func (f fakeAdmin) Enabled() bool { return f.enabled }

func (f fakeAdmin) Validate(token string) error {
	if token != f.token {
		return errors.New("invalid")
	}
	return nil
}

func echoVolunteer(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetVolunteerID(r.Context())
	if !ok {
		w.Write([]byte("none"))
		return
	}
	w.Write([]byte(strconv.FormatInt(id, 10)))
}

func TestVolunteerSession(t *testing.T) {
	h := middleware.VolunteerSession(fakeSessions{"good": 7}, true)(http.HandlerFunc(echoVolunteer))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer good", http.StatusOK, "7"},
		{"lowercase scheme", "bearer good", http.StatusOK, "7"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
			if tt.status != http.StatusOK {
				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp["error"] == "" {
					t.Errorf("expected JSON error body, got %v", err)
				}
			}
		})
	}
}

func TestVolunteerSession_NotRequired(t *testing.T) {
	h := middleware.VolunteerSession(fakeSessions{}, false)(http.HandlerFunc(echoVolunteer))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "none" {
		t.Errorf("expected pass-through, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestAdminOnly(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	open := middleware.AdminOnly(fakeAdmin{enabled: false})(ok)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("open admin should pass, got %d", rec.Code)
	}

	locked := middleware.AdminOnly(fakeAdmin{enabled: true, token: "admin"})(ok)

	rec = httptest.NewRecorder()
	locked.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token should be 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin")
	rec = httptest.NewRecorder()
	locked.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("valid token should pass, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := middleware.CORS([]string{"https://trips.example.org"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "https://trips.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://trips.example.org" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Allow-Origin %q for unknown origin", got)
	}
}

func TestMaxBodySize(t *testing.T) {
	h := middleware.MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var maxErr *http.MaxBytesError
		if _, err := io.ReadAll(r.Body); errors.As(err, &maxErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for body, want := range map[string]int{
		"small":            http.StatusOK,
		"far too large!!!": http.StatusRequestEntityTooLarge,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		if rec.Code != want {
			t.Errorf("body %q: status = %d, want %d", body, rec.Code, want)
		}
	}
}
