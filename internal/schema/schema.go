// Package schema embeds the database migrations for each supported driver
// and applies them with golang-migrate.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/JaimeStill/prombank/pkg/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrations embed.FS

// Source returns the migration source for driver.
func Source(driver string) (source.Driver, error) {
	switch driver {
	case database.DriverPostgres:
		return iofs.New(migrations, "postgres")
	case database.DriverSQLite:
		return iofs.New(migrations, "sqlite")
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, driver)
	}
}

// Up applies all pending migrations to db. The db remains open afterward.
func Up(ctx context.Context, db *sql.DB, driver string) error {
	src, err := Source(driver)
	if err != nil {
		return err
	}

	switch driver {
	case database.DriverPostgres:
		conn, err := db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("acquire migration connection: %w", err)
		}

		target, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			conn.Close()
			return fmt.Errorf("postgres migration driver: %w", err)
		}

		m, err := migrate.NewWithInstance("iofs", src, "postgres", target)
		if err != nil {
			target.Close()
			return fmt.Errorf("create migrator: %w", err)
		}
		defer m.Close()

		return apply(m)

	default:
		// The sqlite3 driver closes the *sql.DB when the migrator is closed,
		// so the migrator is left for the collector.
		target, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("sqlite migration driver: %w", err)
		}

		m, err := migrate.NewWithInstance("iofs", src, "sqlite3", target)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}

		return apply(m)
	}
}

func apply(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
