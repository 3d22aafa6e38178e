package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"field-trip-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const albumColumns = `id, volunteer_id, dog_name, location, blurb, folder_id, folder_name, status, created_at, closed_at`

// AlbumRepository handles database operations for albums
type AlbumRepository struct {
	db *pgxpool.Pool
}

// NewAlbumRepository creates a new album repository
func NewAlbumRepository(db *pgxpool.Pool) *AlbumRepository {
	return &AlbumRepository{db: db}
}

func scanAlbum(row pgx.Row) (*models.Album, error) {
	var a models.Album
	err := row.Scan(&a.ID, &a.VolunteerID, &a.DogName, &a.Location, &a.Blurb,
		&a.FolderID, &a.FolderName, &a.Status, &a.CreatedAt, &a.ClosedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create creates a new album
func (r *AlbumRepository) Create(ctx context.Context, album *models.Album) error {
	query := `
		INSERT INTO albums (volunteer_id, dog_name, location, blurb, folder_id, folder_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		album.VolunteerID, album.DogName, album.Location, album.Blurb,
		album.FolderID, album.FolderName, album.Status, album.CreatedAt,
	).Scan(&album.ID)
	if err != nil {
		return fmt.Errorf("failed to create album: %w", err)
	}
	return nil
}

// GetByID retrieves an album by ID
func (r *AlbumRepository) GetByID(ctx context.Context, id int64) (*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE id = $1`
	album, err := scanAlbum(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get album: %w", err)
	}
	return album, nil
}

// GetOpen retrieves an album by ID only while it is open
func (r *AlbumRepository) GetOpen(ctx context.Context, id int64) (*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE id = $1 AND status = $2`
	album, err := scanAlbum(r.db.QueryRow(ctx, query, id, models.AlbumOpen))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get open album: %w", err)
	}
	return album, nil
}

// GetActive returns the newest open album of a volunteer created after since
func (r *AlbumRepository) GetActive(ctx context.Context, volunteerID int64, since time.Time) (*models.Album, error) {
	query := `
		SELECT ` + albumColumns + `
		FROM albums
		WHERE volunteer_id = $1 AND status = $2 AND created_at > $3
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	album, err := scanAlbum(r.db.QueryRow(ctx, query, volunteerID, models.AlbumOpen, since))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active album: %w", err)
	}
	return album, nil
}

// Close marks an album closed. The first close time is kept on repeated calls.
func (r *AlbumRepository) Close(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE albums
		SET status = $2, closed_at = COALESCE(closed_at, $3)
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, models.AlbumClosed, at)
	if err != nil {
		return fmt.Errorf("failed to close album: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWithStats returns all albums, newest first, with owner name and upload count
func (r *AlbumRepository) ListWithStats(ctx context.Context) ([]*models.AlbumSummary, error) {
	query := `
		SELECT a.id, a.volunteer_id, a.dog_name, a.location, a.blurb, a.folder_id, a.folder_name,
			a.status, a.created_at, a.closed_at,
			COALESCE(v.name, '') AS volunteer_name,
			COUNT(u.id) AS photo_count
		FROM albums a
		LEFT JOIN volunteers v ON v.id = a.volunteer_id
		LEFT JOIN uploads u ON u.album_id = a.id
		GROUP BY a.id, v.name
		ORDER BY a.created_at DESC, a.id DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	albums := []*models.AlbumSummary{}
	for rows.Next() {
		var s models.AlbumSummary
		err := rows.Scan(&s.ID, &s.VolunteerID, &s.DogName, &s.Location, &s.Blurb,
			&s.FolderID, &s.FolderName, &s.Status, &s.CreatedAt, &s.ClosedAt,
			&s.VolunteerName, &s.PhotoCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}

	return albums, nil
}
