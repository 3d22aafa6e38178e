package testutil

import (
	"context"
	"os"
	"testing"

	"field-trip-backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestPool connects to TEST_DATABASE_DSN, migrates and truncates all tables.
// The test is skipped when the variable is unset.
func SetupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	db, err := repository.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(db.Close)

	if err := repository.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	_, err = db.Exec(ctx, `TRUNCATE volunteers, access_tokens, albums, uploads RESTART IDENTITY`)
	if err != nil {
		t.Fatalf("failed to truncate: %v", err)
	}

	return db
}
