package services

import (
	"context"
	"time"

	"field-trip-backend/internal/models"
)

// VolunteerStore persists volunteers
type VolunteerStore interface {
	Create(ctx context.Context, v *models.Volunteer) error
	GetByID(ctx context.Context, id int64) (*models.Volunteer, error)
	GetEnabledByPhone(ctx context.Context, phone string) (*models.Volunteer, error)
	List(ctx context.Context) ([]*models.Volunteer, error)
	Update(ctx context.Context, v *models.Volunteer) error
	ToggleStatus(ctx context.Context, id int64) (string, error)
	Delete(ctx context.Context, id int64) error
}

// TokenStore persists access tokens. Consume must be atomic.
type TokenStore interface {
	Create(ctx context.Context, token *models.AccessToken) error
	Consume(ctx context.Context, token string, now time.Time) (*models.Volunteer, error)
}

// AlbumStore persists albums
type AlbumStore interface {
	Create(ctx context.Context, album *models.Album) error
	GetByID(ctx context.Context, id int64) (*models.Album, error)
	GetOpen(ctx context.Context, id int64) (*models.Album, error)
	GetActive(ctx context.Context, volunteerID int64, since time.Time) (*models.Album, error)
	Close(ctx context.Context, id int64, at time.Time) error
	ListWithStats(ctx context.Context) ([]*models.AlbumSummary, error)
}

// UploadStore persists upload records
type UploadStore interface {
	Create(ctx context.Context, upload *models.Upload) error
	ListByAlbum(ctx context.Context, albumID int64) ([]*models.Upload, error)
}
