package repository

import (
	"context"
	"errors"
	"fmt"

	"field-trip-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const volunteerColumns = `id, name, phone, area, email, status, created_at`

// VolunteerRepository handles database operations for volunteers
type VolunteerRepository struct {
	db *pgxpool.Pool
}

// NewVolunteerRepository creates a new volunteer repository
func NewVolunteerRepository(db *pgxpool.Pool) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

func scanVolunteer(row pgx.Row) (*models.Volunteer, error) {
	var v models.Volunteer
	if err := row.Scan(&v.ID, &v.Name, &v.Phone, &v.Area, &v.Email, &v.Status, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// Create creates a new volunteer and fills in its ID
func (r *VolunteerRepository) Create(ctx context.Context, v *models.Volunteer) error {
	query := `
		INSERT INTO volunteers (name, phone, area, email, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, v.Name, v.Phone, v.Area, v.Email, v.Status, v.CreatedAt).Scan(&v.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePhone
		}
		return fmt.Errorf("failed to create volunteer: %w", err)
	}
	return nil
}

// GetByID retrieves a volunteer by ID
func (r *VolunteerRepository) GetByID(ctx context.Context, id int64) (*models.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE id = $1`
	v, err := scanVolunteer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get volunteer: %w", err)
	}
	return v, nil
}

// GetEnabledByPhone retrieves an enabled volunteer by normalized phone number
func (r *VolunteerRepository) GetEnabledByPhone(ctx context.Context, phone string) (*models.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE phone = $1 AND status = $2`
	v, err := scanVolunteer(r.db.QueryRow(ctx, query, phone, models.VolunteerEnabled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get volunteer by phone: %w", err)
	}
	return v, nil
}

// List retrieves all volunteers ordered by name
func (r *VolunteerRepository) List(ctx context.Context) ([]*models.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers ORDER BY name, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	defer rows.Close()

	volunteers := []*models.Volunteer{}
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	return volunteers, nil
}

// Update overwrites the editable fields of a volunteer
func (r *VolunteerRepository) Update(ctx context.Context, v *models.Volunteer) error {
	query := `
		UPDATE volunteers SET name = $1, phone = $2, area = $3, email = $4, status = $5
		WHERE id = $6
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, v.Name, v.Phone, v.Area, v.Email, v.Status, v.ID).Scan(&v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicatePhone
		}
		return fmt.Errorf("failed to update volunteer: %w", err)
	}
	return nil
}

// ToggleStatus flips enabled/disabled in one statement and returns the new status
func (r *VolunteerRepository) ToggleStatus(ctx context.Context, id int64) (string, error) {
	query := `
		UPDATE volunteers
		SET status = CASE WHEN status = $2 THEN $3 ELSE $2 END
		WHERE id = $1
		RETURNING status
	`
	var status string
	err := r.db.QueryRow(ctx, query, id, models.VolunteerEnabled, models.VolunteerDisabled).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to toggle volunteer status: %w", err)
	}
	return status, nil
}

// Delete deletes a volunteer by ID. Albums, uploads and tokens are left in place.
func (r *VolunteerRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM volunteers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete volunteer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
