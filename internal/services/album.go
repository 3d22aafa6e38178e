package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"field-trip-backend/internal/models"
	"field-trip-backend/internal/repository"
	"field-trip-backend/internal/storage"

	"github.com/rs/zerolog/log"
)

// CreateAlbumInput holds the fields of a new album
type CreateAlbumInput struct {
	VolunteerID int64  `json:"volunteerId"`
	DogName     string `json:"dogName"`
	Location    string `json:"location"`
	Blurb       string `json:"blurb"`
}

// AlbumService manages field trip albums
type AlbumService struct {
	albums       AlbumStore
	volunteers   VolunteerStore
	folders      storage.FolderStore
	events       EventPublisher
	rootFolderID string
	window       time.Duration
	now          func() time.Time
}

// NewAlbumService creates a new album service. window is how long an open album stays active.
func NewAlbumService(
	albums AlbumStore,
	volunteers VolunteerStore,
	folders storage.FolderStore,
	events EventPublisher,
	rootFolderID string,
	window time.Duration,
) *AlbumService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &AlbumService{
		albums:       albums,
		volunteers:   volunteers,
		folders:      folders,
		events:       publisherOrNop(events),
		rootFolderID: rootFolderID,
		window:       window,
		now:          time.Now,
	}
}

// GetActive returns the volunteer's newest open album created inside the window, or nil
func (s *AlbumService) GetActive(ctx context.Context, volunteerID int64) (*models.Album, error) {
	now := s.now()
	album, err := s.albums.GetActive(ctx, volunteerID, now.Add(-s.window))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, newError(ErrUpstream, "Database error", err)
	}
	if !album.ActiveAt(now, s.window) {
		return nil, nil
	}
	return album, nil
}

// Create opens a new album and its storage folder.
// An already active album does not block creation.
func (s *AlbumService) Create(ctx context.Context, input CreateAlbumInput) (*models.Album, error) {
	dogName := strings.TrimSpace(input.DogName)
	location := strings.TrimSpace(input.Location)
	if input.VolunteerID <= 0 || dogName == "" || location == "" {
		return nil, newError(ErrInvalidInput, "Missing required fields", nil)
	}

	volunteer, err := s.volunteers.GetByID(ctx, input.VolunteerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Volunteer not found", err)
		}
		return nil, newError(ErrUpstream, "Database error", err)
	}

	now := s.now()
	folderName := FolderName(dogName, location, volunteer.Name, now)

	folderID, err := s.folders.CreateFolder(ctx, folderName, s.rootFolderID)
	if err != nil {
		return nil, newError(ErrUpstream, "Failed to create album folder", err)
	}

	album := &models.Album{
		VolunteerID: volunteer.ID,
		DogName:     dogName,
		Location:    location,
		Blurb:       strings.TrimSpace(input.Blurb),
		FolderID:    folderID,
		FolderName:  folderName,
		Status:      models.AlbumOpen,
		CreatedAt:   now,
	}
	if err := s.albums.Create(ctx, album); err != nil {
		return nil, newError(ErrUpstream, "Failed to create album", err)
	}

	log.Info().
		Int64("album_id", album.ID).
		Int64("volunteer_id", volunteer.ID).
		Str("folder", folderName).
		Msg("Album created")

	s.events.Publish(Event{Type: EventAlbumCreated, Data: album})
	return album, nil
}

// Close closes an album. Closing twice is not an error.
// A non-zero ownerID restricts the call to that volunteer's albums.
func (s *AlbumService) Close(ctx context.Context, albumID, ownerID int64) error {
	if albumID <= 0 {
		return newError(ErrInvalidInput, "Album ID is required", nil)
	}

	if ownerID != 0 {
		album, err := s.albums.GetByID(ctx, albumID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newError(ErrNotFound, "Album not found", err)
			}
			return newError(ErrUpstream, "Failed to close album", err)
		}
		if album.VolunteerID != ownerID {
			return newError(ErrNotFound, "Album not found", nil)
		}
	}

	if err := s.albums.Close(ctx, albumID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Album not found", err)
		}
		return newError(ErrUpstream, "Failed to close album", err)
	}

	s.events.Publish(Event{Type: EventAlbumClosed, Data: map[string]interface{}{"album_id": albumID}})
	return nil
}

// List returns every album with owner name and upload count, newest first
func (s *AlbumService) List(ctx context.Context) ([]*models.AlbumSummary, error) {
	albums, err := s.albums.ListWithStats(ctx)
	if err != nil {
		return nil, newError(ErrUpstream, "Database error", err)
	}
	return albums, nil
}

// FolderName derives the storage folder name {dogName}-{YYYY-MM-DD}-{location}-{volunteerName}.
// The date is the UTC calendar day.
func FolderName(dogName, location, volunteerName string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%s", dogName, at.UTC().Format("2006-01-02"), location, volunteerName)
}
