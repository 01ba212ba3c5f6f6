// Package migrations applies the SQL views used by BI tooling. Tables are
// created by gorm AutoMigrate; views live here because gorm cannot express them.
package migrations

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var scripts embed.FS

const dir = "sql"

func prepare() error {
	goose.SetBaseFS(scripts)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// Up applies every pending migration.
func Up(db *gorm.DB, logger *zap.Logger) error {
	if err := prepare(); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	currentVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	logger.Info("current migration status", zap.Int64("version", currentVersion))

	if err := goose.Up(sqlDB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get final version: %w", err)
	}
	logger.Info("migration completed",
		zap.Int64("from_version", currentVersion),
		zap.Int64("to_version", finalVersion))
	return nil
}

// Status prints the applied/pending state of each migration.
func Status(db *gorm.DB) error {
	if err := prepare(); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := goose.Status(sqlDB, dir); err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	return nil
}

// Names lists the embedded migration files in order.
func Names() ([]string, error) {
	entries, err := scripts.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
