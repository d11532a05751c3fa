// Package schematest opens migrated SQLite databases for package tests.
package schematest

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/prombank/internal/schema"
	"github.com/JaimeStill/prombank/pkg/database"
)

// Open returns a migrated SQLite database in a temporary directory,
// closed when the test completes.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	cfg := database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "prombank.db"),
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("database config: %v", err)
	}

	sys, err := database.New(&cfg, Logger())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	db := sys.Connection()
	t.Cleanup(func() { db.Close() })

	if err := schema.Up(context.Background(), db, cfg.Driver); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
