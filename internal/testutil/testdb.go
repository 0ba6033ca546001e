package testutil

import (
	"chat-app-api/internal/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewInMemoryDB creates an in-memory SQLite DB and runs migrations.
// The pool is pinned to one connection: every new connection to
// ":memory:" would otherwise see its own empty database.
func NewInMemoryDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
