package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// RunMigrations brings the engine-owned tables up to date from the SQL files
// in dir. Already-applied migrations are skipped, so running it on every
// startup is safe.
func RunMigrations(db *sql.DB, dir string, logger *zap.Logger) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeMigrator(m, logger)

	switch err := m.Up(); {
	case err == nil:
		version, _, _ := m.Version()
		logger.Info("Migrations applied", zap.Uint("version", version))
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("Schema already up to date")
	default:
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func closeMigrator(m *migrate.Migrate, logger *zap.Logger) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		logger.Warn("Failed to close migrator",
			zap.NamedError("source", srcErr),
			zap.NamedError("database", dbErr))
	}
}
