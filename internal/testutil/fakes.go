package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"field-trip-backend/internal/notify"

	"github.com/go-chi/chi/v5"
)

// StoredFile is a file received by FolderStore
type StoredFile struct {
	ID       string
	Name     string
	FolderID string
	MimeType string
	Data     []byte
}

// FolderStore records folders and files in memory
type FolderStore struct {
	mu      sync.Mutex
	Folders map[string]string // id -> name
	Files   []StoredFile

	FolderErr error
	UploadErr error
}

// NewFolderStore creates an empty folder store
func NewFolderStore() *FolderStore {
	return &FolderStore{Folders: make(map[string]string)}
}

func (f *FolderStore) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FolderErr != nil {
		return "", f.FolderErr
	}
	id := fmt.Sprintf("folder-%d", len(f.Folders)+1)
	f.Folders[id] = name
	return id, nil
}

func (f *FolderStore) UploadFile(_ context.Context, r io.Reader, _ int64, name, folderID, mimeType string) (string, error) {
	if f.UploadErr != nil {
		return "", f.UploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("file-%d", len(f.Files)+1)
	f.Files = append(f.Files, StoredFile{ID: id, Name: name, FolderID: folderID, MimeType: mimeType, Data: data})
	return id, nil
}

// FileCount returns the number of stored files
func (f *FolderStore) FileCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Files)
}

// Notifier records messages instead of sending them
type Notifier struct {
	mu       sync.Mutex
	Messages []notify.Message
	Err      error
}

func (n *Notifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, msg)
	return n.Err
}

// Last returns the last recorded message
func (n *Notifier) Last() (notify.Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Messages) == 0 {
		return notify.Message{}, false
	}
	return n.Messages[len(n.Messages)-1], true
}

// WithChiURLParams attaches chi route params to a request for calling handlers directly
func WithChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
