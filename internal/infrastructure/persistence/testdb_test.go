package persistence

import (
	"path/filepath"
	"testing"

	"github.com/adplan/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB creates a file-backed SQLite database with every canonical table
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return setupTestDBWithTables(t, config.DefaultTables())
}

func setupTestDBWithTables(t *testing.T, tables config.TablesConfig) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "adplan.db")), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db, tables))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
