package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JaimeStill/prombank/internal/schema"
	"github.com/JaimeStill/prombank/internal/schema/schematest"
	"github.com/JaimeStill/prombank/pkg/database"
)

func TestSourceDrivers(t *testing.T) {
	for _, driver := range []string{database.DriverPostgres, database.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			src, err := schema.Source(driver)
			if err != nil {
				t.Fatalf("Source(%q) error: %v", driver, err)
			}
			defer src.Close()

			v, err := src.First()
			if err != nil || v != 1 {
				t.Errorf("First() = %d, %v; want 1", v, err)
			}
		})
	}

	if _, err := schema.Source("oracle"); !errors.Is(err, database.ErrUnsupportedDriver) {
		t.Errorf("err = %v, want ErrUnsupportedDriver", err)
	}
}

func TestSQLiteUpIsIdempotent(t *testing.T) {
	db := schematest.Open(t)

	if err := schema.Up(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("second Up() error: %v", err)
	}

	tables := []string{"categories", "tags", "prompts", "prompt_tags", "prompt_versions"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := schematest.Open(t)

	_, err := db.Exec(`INSERT INTO prompt_tags (prompt_id, tag_id) VALUES ($1, $2)`, "missing", "missing")
	if err == nil {
		t.Error("expected foreign key violation")
	}
}
