package storage

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const driveFolderMimeType = "application/vnd.google-apps.folder"

// DriveConfig holds the OAuth client and the long lived refresh token
type DriveConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string
}

// DriveStore keeps album folders in Google Drive
type DriveStore struct {
	files *drive.FilesService
}

// NewDriveStore builds a Drive client that refreshes its access token as needed
func NewDriveStore(ctx context.Context, cfg DriveConfig) (*DriveStore, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	srv, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveStore{files: srv.Files}, nil
}

// CreateFolder creates a Drive folder and returns its file id
func (d *DriveStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	folder := &drive.File{
		Name:     name,
		MimeType: driveFolderMimeType,
	}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}

	created, err := d.files.Create(folder).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create drive folder: %w", err)
	}

	return created.Id, nil
}

// UploadFile uploads r into the folder and returns the Drive file id
func (d *DriveStore) UploadFile(ctx context.Context, r io.Reader, _ int64, name, folderID, mimeType string) (string, error) {
	file := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}

	var opts []googleapi.MediaOption
	if mimeType != "" {
		opts = append(opts, googleapi.ContentType(mimeType))
	}

	created, err := d.files.Create(file).
		Media(r, opts...).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload file to drive: %w", err)
	}

	return created.Id, nil
}
