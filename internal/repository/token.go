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

// TokenRepository handles database operations for access tokens
type TokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a newly issued token
func (r *TokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	query := `
		INSERT INTO access_tokens (token, volunteer_id, expires_at, used, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, token.Token, token.VolunteerID, token.ExpiresAt, token.CreatedAt).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}
	return nil
}

// Consume marks an unused, unexpired token as used and returns its volunteer.
// The check and the update run as one statement, so concurrent callers cannot both win.
func (r *TokenRepository) Consume(ctx context.Context, token string, now time.Time) (*models.Volunteer, error) {
	query := `
		WITH consumed AS (
			UPDATE access_tokens
			SET used = TRUE, used_at = $2
			WHERE token = $1 AND used = FALSE AND expires_at > $2
			RETURNING volunteer_id
		)
		SELECT v.id, v.name, v.phone, v.area, v.email, v.status, v.created_at
		FROM consumed c
		JOIN volunteers v ON v.id = c.volunteer_id
	`
	v, err := scanVolunteer(r.db.QueryRow(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to consume access token: %w", err)
	}
	return v, nil
}
