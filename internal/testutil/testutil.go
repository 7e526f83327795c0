// Package testutil provides helpers for tests that need a migrated database.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/slipstream/delaygate/internal/database"
	"github.com/slipstream/delaygate/internal/database/sqlc"
)

// TestDB wraps a test database connection.
type TestDB struct {
	DB     *database.DB
	Conn   *sql.DB
	Path   string
	Logger zerolog.Logger
}

// NewTestDB creates a migrated SQLite database in a per-test temp directory.
// The caller should defer Close() to clean up.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dir := t.TempDir()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)

	db, err := database.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDB{
		DB:     db,
		Conn:   db.Conn(),
		Path:   dir,
		Logger: logger,
	}
}

// Close closes the database. The temp directory is removed by the testing package.
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// Int64Ptr returns a pointer to an int64.
func Int64Ptr(i int64) *int64 {
	return &i
}

// CreateQualityProfile inserts a minimal quality profile and returns its ID.
// Series rows reference a quality profile, so most fixtures need one.
func (tdb *TestDB) CreateQualityProfile(t *testing.T, name string) int64 {
	t.Helper()
	row, err := sqlc.New(tdb.Conn).CreateQualityProfile(context.Background(), sqlc.CreateQualityProfileParams{
		Name:   name,
		Cutoff: 1,
		Items:  `[{"quality":{"id":1,"name":"SDTV","source":"tv","resolution":480,"weight":1},"allowed":true}]`,
	})
	if err != nil {
		t.Fatalf("Failed to create quality profile: %v", err)
	}
	return row.ID
}
