// Package testutil provides shared helpers for package-level tests.
package testutil

import (
	"testing"

	"github.com/presaleshub/crm-api/internal/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory SQLite database with the full schema
// migrated. Each call returns an isolated database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db), "failed to migrate schema")

	return db
}
