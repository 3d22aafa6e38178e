package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"field-trip-backend/internal/models"
	"field-trip-backend/internal/repository"
	"field-trip-backend/internal/storage"

	"github.com/rs/zerolog/log"
)

// UploadInput is one file relayed to an album
type UploadInput struct {
	AlbumID  int64
	OwnerID  int64 // non-zero restricts the upload to this volunteer's albums
	File     io.Reader
	Size     int64
	FileName string
	MimeType string
}

// UploadService relays files to external storage and records them
type UploadService struct {
	albums   AlbumStore
	uploads  UploadStore
	folders  storage.FolderStore
	events   EventPublisher
	maxBytes int64
	now      func() time.Time
}

// NewUploadService creates a new upload service
func NewUploadService(
	albums AlbumStore,
	uploads UploadStore,
	folders storage.FolderStore,
	events EventPublisher,
	maxBytes int64,
) *UploadService {
	return &UploadService{
		albums:   albums,
		uploads:  uploads,
		folders:  folders,
		events:   publisherOrNop(events),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// MaxBytes returns the upload size ceiling
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores a file under an open album's folder and records it
func (s *UploadService) Upload(ctx context.Context, input UploadInput) (*models.Upload, error) {
	fileName := strings.TrimSpace(input.FileName)
	if input.AlbumID <= 0 || input.File == nil || fileName == "" {
		return nil, newError(ErrInvalidInput, "Missing album ID or file", nil)
	}
	if s.maxBytes > 0 && input.Size > s.maxBytes {
		return nil, newError(ErrPayloadTooLarge, "File too large", nil)
	}

	album, err := s.albums.GetOpen(ctx, input.AlbumID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Album not found or closed", err)
		}
		return nil, newError(ErrUpstream, "Database error", err)
	}
	if input.OwnerID != 0 && album.VolunteerID != input.OwnerID {
		return nil, newError(ErrNotFound, "Album not found or closed", nil)
	}

	fileID, err := s.folders.UploadFile(ctx, input.File, input.Size, fileName, album.FolderID, input.MimeType)
	if err != nil {
		return nil, newError(ErrUpstream, "Failed to upload file", err)
	}

	upload := &models.Upload{
		AlbumID:     album.ID,
		FileName:    fileName,
		DriveFileID: fileID,
		MimeType:    input.MimeType,
		SizeBytes:   input.Size,
		UploadedAt:  s.now(),
	}
	if err := s.uploads.Create(ctx, upload); err != nil {
		return nil, newError(ErrUpstream, "Failed to record upload", err)
	}

	log.Info().
		Int64("album_id", album.ID).
		Str("file_name", fileName).
		Int64("size", input.Size).
		Msg("File uploaded")

	s.events.Publish(Event{Type: EventUploadRecorded, Data: upload})
	return upload, nil
}

// ListByAlbum returns the uploads of an album
func (s *UploadService) ListByAlbum(ctx context.Context, albumID int64) ([]*models.Upload, error) {
	uploads, err := s.uploads.ListByAlbum(ctx, albumID)
	if err != nil {
		return nil, newError(ErrUpstream, "Database error", err)
	}
	return uploads, nil
}
