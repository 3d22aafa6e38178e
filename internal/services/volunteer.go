package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"field-trip-backend/internal/models"
	"field-trip-backend/internal/repository"
)

// VolunteerInput is the editable part of a volunteer record
type VolunteerInput struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Area   string `json:"area"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// VolunteerService manages the volunteer directory for admins
type VolunteerService struct {
	volunteers VolunteerStore
	events     EventPublisher
	now        func() time.Time
}

// NewVolunteerService creates a new volunteer service
func NewVolunteerService(volunteers VolunteerStore, events EventPublisher) *VolunteerService {
	return &VolunteerService{
		volunteers: volunteers,
		events:     publisherOrNop(events),
		now:        time.Now,
	}
}

// List returns every volunteer ordered by name
func (s *VolunteerService) List(ctx context.Context) ([]*models.Volunteer, error) {
	volunteers, err := s.volunteers.List(ctx)
	if err != nil {
		return nil, newError(ErrUpstream, "Database error", err)
	}
	return volunteers, nil
}

// Create adds a volunteer
func (s *VolunteerService) Create(ctx context.Context, input VolunteerInput) (*models.Volunteer, error) {
	v, err := buildVolunteer(input)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = s.now()

	if err := s.volunteers.Create(ctx, v); err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return nil, newError(ErrConflict, "Phone number already exists", err)
		}
		return nil, newError(ErrUpstream, "Failed to add volunteer", err)
	}

	s.events.Publish(Event{Type: EventVolunteerSaved, Data: v})
	return v, nil
}

// Update replaces the editable fields of a volunteer.
// An omitted status keeps the stored one, so an edit never re-enables a volunteer.
func (s *VolunteerService) Update(ctx context.Context, id int64, input VolunteerInput) (*models.Volunteer, error) {
	v, err := buildVolunteer(input)
	if err != nil {
		return nil, err
	}
	v.ID = id

	if strings.TrimSpace(input.Status) == "" {
		current, err := s.volunteers.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, newError(ErrNotFound, "Volunteer not found", err)
			}
			return nil, newError(ErrUpstream, "Failed to update volunteer", err)
		}
		v.Status = current.Status
	}

	if err := s.volunteers.Update(ctx, v); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, newError(ErrNotFound, "Volunteer not found", err)
		case errors.Is(err, repository.ErrDuplicatePhone):
			return nil, newError(ErrConflict, "Phone number already exists", err)
		}
		return nil, newError(ErrUpstream, "Failed to update volunteer", err)
	}

	s.events.Publish(Event{Type: EventVolunteerSaved, Data: v})
	return v, nil
}

// Toggle flips a volunteer between enabled and disabled and returns the new status
func (s *VolunteerService) Toggle(ctx context.Context, id int64) (string, error) {
	status, err := s.volunteers.ToggleStatus(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", newError(ErrNotFound, "Volunteer not found", err)
		}
		return "", newError(ErrUpstream, "Failed to toggle status", err)
	}

	s.events.Publish(Event{
		Type: EventVolunteerSaved,
		Data: map[string]interface{}{"id": id, "status": status},
	})
	return status, nil
}

// Delete removes a volunteer. Their albums and uploads stay.
func (s *VolunteerService) Delete(ctx context.Context, id int64) error {
	if err := s.volunteers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Volunteer not found", err)
		}
		return newError(ErrUpstream, "Failed to delete volunteer", err)
	}

	s.events.Publish(Event{Type: EventVolunteerDeleted, Data: map[string]interface{}{"id": id}})
	return nil
}

func buildVolunteer(input VolunteerInput) (*models.Volunteer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.Phone) == "" {
		return nil, newError(ErrInvalidInput, "Name and phone are required", nil)
	}

	phone, err := NormalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	status, err := normalizeStatus(input.Status)
	if err != nil {
		return nil, err
	}

	return &models.Volunteer{
		Name:   name,
		Phone:  phone,
		Area:   strings.TrimSpace(input.Area),
		Email:  strings.TrimSpace(input.Email),
		Status: status,
	}, nil
}
