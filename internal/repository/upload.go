package repository

import (
	"context"
	"fmt"

	"field-trip-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UploadRepository handles database operations for uploads
type UploadRepository struct {
	db *pgxpool.Pool
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(db *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create records a file that was stored externally
func (r *UploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	query := `
		INSERT INTO uploads (album_id, file_name, drive_file_id, mime_type, size_bytes, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		upload.AlbumID, upload.FileName, upload.DriveFileID, upload.MimeType, upload.SizeBytes, upload.UploadedAt,
	).Scan(&upload.ID)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// ListByAlbum retrieves uploads of an album, oldest first
func (r *UploadRepository) ListByAlbum(ctx context.Context, albumID int64) ([]*models.Upload, error) {
	query := `
		SELECT id, album_id, file_name, drive_file_id, mime_type, size_bytes, uploaded_at
		FROM uploads
		WHERE album_id = $1
		ORDER BY uploaded_at, id
	`
	rows, err := r.db.Query(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := []*models.Upload{}
	for rows.Next() {
		var u models.Upload
		if err := rows.Scan(&u.ID, &u.AlbumID, &u.FileName, &u.DriveFileID, &u.MimeType, &u.SizeBytes, &u.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploads: %w", err)
	}

	return uploads, nil
}
