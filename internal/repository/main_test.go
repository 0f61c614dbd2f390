package repository

import (
	"testing"

	"warden/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupRepoTestDB creates an in-memory SQLite database with the full schema,
// including the partial unique index guarding the single-active-ban rule.
func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	require.NoError(t, database.EnsureBanIndexes(db))
	return db
}
