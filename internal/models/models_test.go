package models

import (
	"testing"
	"time"
)

func TestVolunteerEnabled(t *testing.T) {
	if !(&Volunteer{Status: VolunteerEnabled}).Enabled() {
		t.Error("enabled volunteer reported disabled")
	}
	if (&Volunteer{Status: VolunteerDisabled}).Enabled() {
		t.Error("disabled volunteer reported enabled")
	}
}

func TestAlbumActiveAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	tests := []struct {
		name    string
		status  string
		created time.Time
		want    bool
	}{
		{"fresh open", AlbumOpen, now.Add(-time.Hour), true},
		{"fresh closed", AlbumClosed, now.Add(-time.Hour), false},
		{"at window edge", AlbumOpen, now.Add(-window), false},
		{"just inside window", AlbumOpen, now.Add(-window + time.Second), true},
		{"stale open", AlbumOpen, now.Add(-25 * time.Hour), false},
	}
	for _, tt := range tests {
		a := &Album{Status: tt.status, CreatedAt: tt.created}
		if got := a.ActiveAt(now, window); got != tt.want {
			t.Errorf("%s: ActiveAt = %v, want %v", tt.name, got, tt.want)
		}
	}
}
