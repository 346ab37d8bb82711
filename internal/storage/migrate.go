package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// The documents schema ships embedded so a fresh wallet database needs no
// migration files on disk.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

// migrateSchema brings the documents table up to the latest version. It
// opens its own short-lived connection: the migrate driver takes ownership
// of the handle it wraps and closes it, which must not happen to the
// repository's handle.
func migrateSchema(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("wrap sqlite connection: %w", err)
	}

	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("load embedded schema: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("prepare migration: %w", err)
	}
	defer m.Close()

	switch err := m.Up(); {
	case err == nil:
		version, dirty, _ := m.Version()
		slog.Info("Documents schema migrated", "version", version, "dirty", dirty)
	case errors.Is(err, migrate.ErrNoChange):
		slog.Debug("Documents schema already current")
	default:
		return fmt.Errorf("apply schema migrations: %w", err)
	}
	return nil
}
