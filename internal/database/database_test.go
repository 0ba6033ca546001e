package database

import (
	"path/filepath"
	"testing"

	"chat-app-api/internal/config"
	"chat-app-api/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestOpen_MigratesUsers(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "chat.db")

	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.True(t, db.Migrator().HasTable(&models.User{}))
	require.NoError(t, db.Create(&models.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", Password: "x"}).Error)

	// Email is unique.
	err = db.Create(&models.User{ID: "u-2", Name: "Other", Email: "alice@example.com", Password: "x"}).Error
	require.Error(t, err)
	require.True(t, IsDuplicateKey(err))
	require.False(t, IsDuplicateKey(gorm.ErrRecordNotFound))
	require.False(t, IsDuplicateKey(nil))
}

func TestOpen_SkipsMigrationWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "chat.db")
	off := false
	cfg.Database.AutoMigrate = &off

	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.False(t, db.Migrator().HasTable(&models.User{}))
}

func TestOpen_MigrationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")

	// A view already owns the users name, so creating the table fails.
	seed, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, seed.Exec("CREATE VIEW users AS SELECT 1 AS id").Error)
	require.NoError(t, Close(seed))

	cfg := config.Default()
	cfg.Database.Path = path

	db, err := Open(cfg, zap.NewNop())
	require.ErrorContains(t, err, "migrate database")
	require.Nil(t, db)
}
