package seed

import (
	"testing"

	"warden/internal/database"
	"warden/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	require.NoError(t, database.EnsureBanIndexes(db))
	return db
}

func TestSeedPopulatesAllTables(t *testing.T) {
	db := setupSeedTestDB(t)

	err := Seed(db, Options{NumUsers: 10, NumBans: 20, NumTopups: 15, ShouldClean: true})
	require.NoError(t, err)

	var userCount, banCount, topupCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Ban{}).Count(&banCount).Error)
	require.NoError(t, db.Model(&models.Topup{}).Count(&topupCount).Error)

	assert.Equal(t, int64(11), userCount, "10 users plus the admin")
	assert.Greater(t, banCount, int64(0))
	assert.Greater(t, topupCount, int64(0))

	var admin models.User
	require.NoError(t, db.First(&admin, "username = ?", "moderator").Error)
	assert.True(t, admin.IsAdmin)
}

func TestSeedKeepsSingleOpenRestrictionPerUser(t *testing.T) {
	db := setupSeedTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 5, NumBans: 40, NumTopups: 0}))

	type row struct {
		UserID uint
		N      int64
	}
	var rows []row
	require.NoError(t, db.Model(&models.Ban{}).
		Select("user_id, COUNT(*) AS n").
		Where("status IN ?", []models.BanStatus{models.BanStatusActive, models.BanStatusAppealed}).
		Group("user_id").
		Scan(&rows).Error)

	for _, r := range rows {
		assert.LessOrEqualf(t, r.N, int64(1), "user %d has %d open restrictions", r.UserID, r.N)
	}
}

func TestSeedClearIsIdempotent(t *testing.T) {
	db := setupSeedTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 3, NumBans: 5, NumTopups: 2, ShouldClean: true}))
	require.NoError(t, Seed(db, Options{NumUsers: 3, NumBans: 5, NumTopups: 2, ShouldClean: true}))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(4), userCount)
}
