package storage

import (
	"context"
	"io"
	"strings"
)

// FolderStore is the external storage that receives album folders and files
type FolderStore interface {
	// CreateFolder creates a folder named name under parentID and returns its reference
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	// UploadFile streams r into folderID and returns the stored file reference
	UploadFile(ctx context.Context, r io.Reader, size int64, name, folderID, mimeType string) (string, error)
}

// cleanName makes a user supplied name safe to use as a single path segment
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}
