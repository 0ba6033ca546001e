package database

import (
	"errors"
	"fmt"
	"strings"

	"chat-app-api/internal/config"
	"chat-app-api/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens the account database and runs migrations when enabled.
// glebarez/sqlite is a pure Go driver, so no CGO is required.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if !cfg.App.Env.IsProduction() {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}

	if cfg.ShouldMigrate() {
		if err := Migrate(db); err != nil {
			_ = Close(db)
			return nil, err
		}
		log.Info("database migrated", zap.String("path", cfg.Database.Path))
	}
	return db, nil
}

// Migrate creates or updates the tables the server owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
