package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationFiles provisions the read model (fact tables, reference views and
// rpc_dashboard_comercial) on development databases.
//
//go:embed *.sql
var MigrationFiles embed.FS

// RunMigrations executes all pending migrations against the provided database.
// If autoMigrate is false, it only logs the current version and returns.
func RunMigrations(db *sql.DB, autoMigrate bool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	sourceDriver, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if !autoMigrate {
		logger.Info("[Migrations] Auto-migration disabled, skipping migrations",
			"current_version", version,
			"dirty", dirty,
		)
		return nil
	}

	if dirty {
		logger.Warn("[Migrations] Database is in dirty state - migration was interrupted",
			"version", version,
			"action", "re-running interrupted migration",
		)

		// Every script is idempotent, so step back and apply the version again.
		if err := m.Force(versionBefore(version)); err != nil {
			return fmt.Errorf("failed to recover dirty migration state at version %d: %w", version, err)
		}
	}

	logger.Info("[Migrations] Running database migrations", "current_version", version)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("[Migrations] Database schema is up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get updated migration version: %w", err)
	}

	logger.Info("[Migrations] Database migrations completed successfully",
		"from_version", version,
		"to_version", newVersion,
	)

	return nil
}

// versionBefore returns the version to force so that dirty version v is applied
// again. Below the first migration that is the nil version, not 0.
func versionBefore(v uint) int {
	if v <= 1 {
		return database.NilVersion
	}
	return int(v) - 1
}
