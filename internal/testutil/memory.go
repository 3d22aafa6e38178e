package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"field-trip-backend/internal/models"
	"field-trip-backend/internal/repository"
)

// Store is an in-memory implementation of the volunteer, token, album and upload stores.
// Each store method locks the whole store, so Consume is atomic like the SQL version.
type Store struct {
	mu         sync.Mutex
	nextID     int64
	volunteers map[int64]*models.Volunteer
	tokens     map[string]*models.AccessToken
	albums     map[int64]*models.Album
	uploads    []*models.Upload

	// Err, when set, is returned by every call
	Err error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		volunteers: make(map[int64]*models.Volunteer),
		tokens:     make(map[string]*models.AccessToken),
		albums:     make(map[int64]*models.Album),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Volunteers returns the volunteer store view
func (s *Store) Volunteers() *VolunteerStore { return &VolunteerStore{s} }

// Tokens returns the token store view
func (s *Store) Tokens() *TokenStore { return &TokenStore{s} }

// Albums returns the album store view
func (s *Store) Albums() *AlbumStore { return &AlbumStore{s} }

// Uploads returns the upload store view
func (s *Store) Uploads() *UploadStore { return &UploadStore{s} }

// AddVolunteer inserts a volunteer directly and returns it
func (s *Store) AddVolunteer(name, phone, email, status string) *models.Volunteer {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &models.Volunteer{ID: s.id(), Name: name, Phone: phone, Email: email, Status: status, CreatedAt: time.Now()}
	s.volunteers[v.ID] = v
	return copyVolunteer(v)
}

// AddAlbum inserts an album directly and returns it
func (s *Store) AddAlbum(a models.Album) *models.Album {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.albums[a.ID] = &a
	c := a
	return &c
}

// Token returns a stored token by value
func (s *Store) Token(token string) (*models.AccessToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, false
	}
	c := *t
	return &c, true
}

// TokenCount returns the number of stored tokens
func (s *Store) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// Album returns a stored album by value
func (s *Store) Album(id int64) (*models.Album, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.albums[id]
	if !ok {
		return nil, false
	}
	c := *a
	return &c, true
}

// UploadCount returns the number of recorded uploads
func (s *Store) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

func copyVolunteer(v *models.Volunteer) *models.Volunteer {
	c := *v
	return &c
}

// VolunteerStore is the volunteer view of Store
type VolunteerStore struct{ s *Store }

func (v *VolunteerStore) Create(_ context.Context, vol *models.Volunteer) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.volunteers {
		if existing.Phone == vol.Phone {
			return repository.ErrDuplicatePhone
		}
	}
	vol.ID = s.id()
	s.volunteers[vol.ID] = copyVolunteer(vol)
	return nil
}

func (v *VolunteerStore) GetByID(_ context.Context, id int64) (*models.Volunteer, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	vol, ok := s.volunteers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyVolunteer(vol), nil
}

func (v *VolunteerStore) GetEnabledByPhone(_ context.Context, phone string) (*models.Volunteer, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, vol := range s.volunteers {
		if vol.Phone == phone && vol.Enabled() {
			return copyVolunteer(vol), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (v *VolunteerStore) List(_ context.Context) ([]*models.Volunteer, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []*models.Volunteer{}
	for _, vol := range s.volunteers {
		out = append(out, copyVolunteer(vol))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *VolunteerStore) Update(_ context.Context, vol *models.Volunteer) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.volunteers[vol.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range s.volunteers {
		if id != vol.ID && other.Phone == vol.Phone {
			return repository.ErrDuplicatePhone
		}
	}
	vol.CreatedAt = existing.CreatedAt
	s.volunteers[vol.ID] = copyVolunteer(vol)
	return nil
}

func (v *VolunteerStore) ToggleStatus(_ context.Context, id int64) (string, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	vol, ok := s.volunteers[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	if vol.Status == models.VolunteerEnabled {
		vol.Status = models.VolunteerDisabled
	} else {
		vol.Status = models.VolunteerEnabled
	}
	return vol.Status, nil
}

func (v *VolunteerStore) Delete(_ context.Context, id int64) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.volunteers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.volunteers, id)
	return nil
}

// TokenStore is the token view of Store
type TokenStore struct{ s *Store }

func (t *TokenStore) Create(_ context.Context, token *models.AccessToken) error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	token.ID = s.id()
	c := *token
	s.tokens[token.Token] = &c
	return nil
}

func (t *TokenStore) Consume(_ context.Context, token string, now time.Time) (*models.Volunteer, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	at, ok := s.tokens[token]
	if !ok || at.Used || !at.ExpiresAt.After(now) {
		return nil, repository.ErrNotFound
	}
	vol, ok := s.volunteers[at.VolunteerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	at.Used = true
	usedAt := now
	at.UsedAt = &usedAt
	return copyVolunteer(vol), nil
}

// AlbumStore is the album view of Store
type AlbumStore struct{ s *Store }

func (a *AlbumStore) Create(_ context.Context, album *models.Album) error {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	album.ID = s.id()
	c := *album
	s.albums[album.ID] = &c
	return nil
}

func (a *AlbumStore) GetByID(_ context.Context, id int64) (*models.Album, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	album, ok := s.albums[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *album
	return &c, nil
}

func (a *AlbumStore) GetOpen(ctx context.Context, id int64) (*models.Album, error) {
	album, err := a.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !album.Open() {
		return nil, repository.ErrNotFound
	}
	return album, nil
}

func (a *AlbumStore) GetActive(_ context.Context, volunteerID int64, since time.Time) (*models.Album, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var best *models.Album
	for _, album := range s.albums {
		if album.VolunteerID != volunteerID || !album.Open() || !album.CreatedAt.After(since) {
			continue
		}
		if best == nil || album.CreatedAt.After(best.CreatedAt) ||
			(album.CreatedAt.Equal(best.CreatedAt) && album.ID > best.ID) {
			best = album
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	c := *best
	return &c, nil
}

func (a *AlbumStore) Close(_ context.Context, id int64, at time.Time) error {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	album, ok := s.albums[id]
	if !ok {
		return repository.ErrNotFound
	}
	album.Status = models.AlbumClosed
	if album.ClosedAt == nil {
		closedAt := at
		album.ClosedAt = &closedAt
	}
	return nil
}

func (a *AlbumStore) ListWithStats(_ context.Context) ([]*models.AlbumSummary, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []*models.AlbumSummary{}
	for _, album := range s.albums {
		summary := &models.AlbumSummary{Album: *album}
		if v, ok := s.volunteers[album.VolunteerID]; ok {
			summary.VolunteerName = v.Name
		}
		for _, u := range s.uploads {
			if u.AlbumID == album.ID {
				summary.PhotoCount++
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UploadStore is the upload view of Store
type UploadStore struct{ s *Store }

func (u *UploadStore) Create(_ context.Context, upload *models.Upload) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	upload.ID = s.id()
	c := *upload
	s.uploads = append(s.uploads, &c)
	return nil
}

func (u *UploadStore) ListByAlbum(_ context.Context, albumID int64) ([]*models.Upload, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []*models.Upload{}
	for _, up := range s.uploads {
		if up.AlbumID == albumID {
			c := *up
			out = append(out, &c)
		}
	}
	return out, nil
}
