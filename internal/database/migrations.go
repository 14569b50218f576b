package database

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// RunMigrations executes all pending migrations for the given provider.
// Each provider has its own migration tree under migrationsDir because the
// DDL differs per backend while the resulting schema contract is identical.
func RunMigrations(db *sql.DB, provider Provider, migrationsDir string, logger *zap.Logger) error {
	if err := goose.SetDialect(provider.GooseDialect()); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	dir := filepath.Join(migrationsDir, string(provider))
	logger.Info("Checking for pending migrations...",
		zap.String("dir", dir),
		zap.String("provider", string(provider)),
	)

	if err := goose.Up(db, dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// GetMigrationStatus returns the current migration status
func GetMigrationStatus(db *sql.DB, provider Provider, migrationsDir string) error {
	if err := goose.SetDialect(provider.GooseDialect()); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.Status(db, filepath.Join(migrationsDir, string(provider)))
}
