package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"warden/internal/database"
	"warden/internal/models"
	"warden/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSweeperDB(t *testing.T) repository.BanRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	require.NoError(t, database.EnsureBanIndexes(db))
	return repository.NewBanRepository(db)
}

func newTestSweeper(banRepo repository.BanRepository) *Sweeper {
	s := NewSweeper(banRepo, nil, time.Minute)
	s.now = func() time.Time { return testClock }
	return s
}

func createExpiredBan(t *testing.T, repo repository.BanRepository, userID uint, expiresAgo time.Duration) *models.Ban {
	t.Helper()
	expires := testClock.Add(-expiresAgo)
	ban := &models.Ban{
		UserID:        userID,
		Username:      "testuser",
		BanType:       models.BanTypeTemporary,
		Status:        models.BanStatusActive,
		DurationHours: 1,
		Reason:        "spamming",
		BannedBy:      "admin",
		ExpiresAt:     &expires,
	}
	require.NoError(t, repo.Create(context.Background(), ban))
	return ban
}

func TestSweeperSweepOnce(t *testing.T) {
	repo := setupSweeperDB(t)
	sweeper := newTestSweeper(repo)
	ctx := context.Background()

	due := createExpiredBan(t, repo, 1, time.Hour)

	// An active ban that expires in the future must survive the sweep.
	future := testClock.Add(time.Hour)
	notDue := &models.Ban{
		UserID:    2,
		Username:  "testuser",
		BanType:   models.BanTypeTemporary,
		Status:    models.BanStatusActive,
		Reason:    "spamming",
		BannedBy:  "admin",
		ExpiresAt: &future,
	}
	require.NoError(t, repo.Create(ctx, notDue))

	expired, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, err := repo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BanStatusExpired, got.Status)
	// The transition only flips the status; the original expiry timestamp
	// is the audit record of when the ban was due to end.
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(*due.ExpiresAt))

	got, err = repo.GetByID(ctx, notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BanStatusActive, got.Status)
}

func TestSweeperSweepOnceIsIdempotent(t *testing.T) {
	repo := setupSweeperDB(t)
	sweeper := newTestSweeper(repo)
	ctx := context.Background()

	createExpiredBan(t, repo, 1, time.Hour)
	createExpiredBan(t, repo, 2, 2*time.Hour)

	expired, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	// A second pass over the same data is a no-op.
	expired, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestSweeperLostRaceIsSkipped(t *testing.T) {
	bans := noopBanRepo()
	bans.findDueFn = func(context.Context, time.Time, int) ([]models.Ban, error) {
		return []models.Ban{{ID: "ban-1", UserID: 1, Status: models.BanStatusActive}}, nil
	}
	// An admin unbanned the user between FindDue and the transition.
	bans.transitionStatusFn = func(context.Context, string, []models.BanStatus, map[string]interface{}) (bool, error) {
		return false, nil
	}
	sweeper := newTestSweeper(bans)

	expired, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestSweeperElementFailureDoesNotStallBatch(t *testing.T) {
	bans := noopBanRepo()
	bans.findDueFn = func(context.Context, time.Time, int) ([]models.Ban, error) {
		return []models.Ban{
			{ID: "ban-1", UserID: 1, Status: models.BanStatusActive},
			{ID: "ban-2", UserID: 2, Status: models.BanStatusActive},
		}, nil
	}
	bans.transitionStatusFn = func(_ context.Context, id string, _ []models.BanStatus, _ map[string]interface{}) (bool, error) {
		if id == "ban-1" {
			return false, errors.New("connection refused")
		}
		return true, nil
	}
	sweeper := newTestSweeper(bans)

	expired, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
}

func TestSweeperStartStop(t *testing.T) {
	repo := setupSweeperDB(t)
	sweeper := NewSweeper(repo, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()
}
