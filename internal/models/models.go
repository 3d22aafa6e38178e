package models

import "time"

// Volunteer statuses
const (
	VolunteerEnabled  = "enabled"
	VolunteerDisabled = "disabled"
)

// Album statuses
const (
	AlbumOpen   = "open"
	AlbumClosed = "closed"
)

// Volunteer represents a rescue volunteer allowed to upload field trip photos
type Volunteer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Area      string    `json:"area"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Enabled reports whether the volunteer may request access links
func (v *Volunteer) Enabled() bool {
	return v.Status == VolunteerEnabled
}

// Profile returns the public view handed to the client after verification
func (v *Volunteer) Profile() VolunteerProfile {
	return VolunteerProfile{ID: v.ID, Name: v.Name, Phone: v.Phone, Area: v.Area}
}

// VolunteerProfile is the public part of a volunteer record
type VolunteerProfile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Area  string `json:"area"`
}

// AccessToken represents a one-time access link token
type AccessToken struct {
	ID          int64      `json:"id"`
	Token       string     `json:"-"`
	VolunteerID int64      `json:"volunteer_id"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Used        bool       `json:"used"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Album represents a field trip photo session
type Album struct {
	ID          int64      `json:"id"`
	VolunteerID int64      `json:"volunteer_id"`
	DogName     string     `json:"dog_name"`
	Location    string     `json:"location"`
	Blurb       string     `json:"blurb"`
	FolderID    string     `json:"folder_id"`
	FolderName  string     `json:"folder_name"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at"`
}

// Open reports whether the album still accepts uploads
func (a *Album) Open() bool {
	return a.Status == AlbumOpen
}

// ActiveAt reports whether the album is open and inside the freshness window at now
func (a *Album) ActiveAt(now time.Time, window time.Duration) bool {
	return a.Open() && a.CreatedAt.After(now.Add(-window))
}

// AlbumSummary is an album joined with its owner name and upload count
type AlbumSummary struct {
	Album
	VolunteerName string `json:"volunteer_name"`
	PhotoCount    int    `json:"photo_count"`
}

// Upload represents a file relayed to external storage
type Upload struct {
	ID          int64     `json:"id"`
	AlbumID     int64     `json:"album_id"`
	FileName    string    `json:"file_name"`
	DriveFileID string    `json:"drive_file_id"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
