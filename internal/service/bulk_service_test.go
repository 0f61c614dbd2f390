package service

import (
	"context"
	"testing"

	"warden/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkServiceBulkBanRequiresUsers(t *testing.T) {
	svc := NewBulkService(newTestBanService(noopBanRepo(), noopUserRepo()))

	_, err := svc.BulkBan(context.Background(), BulkBanInput{
		BanType:  models.BanTypePermanent,
		Reason:   "raid",
		BannedBy: "admin",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestBulkServiceBulkBanPerElementIsolation(t *testing.T) {
	bans := noopBanRepo()
	bans.getRestrictingByUserFn = func(_ context.Context, userID uint) (*models.Ban, error) {
		if userID == 2 {
			return &models.Ban{ID: "existing", UserID: 2, Status: models.BanStatusActive}, nil
		}
		return nil, nil
	}
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		if id == 3 {
			return nil, models.NewNotFoundError("User", id)
		}
		return &models.User{ID: id, Username: "testuser"}, nil
	}
	svc := NewBulkService(newTestBanService(bans, users))

	result, err := svc.BulkBan(context.Background(), BulkBanInput{
		UserIDs:  []uint{1, 2, 3, 4},
		BanType:  models.BanTypePermanent,
		Reason:   "raid",
		BannedBy: "admin",
	})
	require.NoError(t, err)

	assert.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, uint(2), result.Failed[0].UserID)
	assert.Equal(t, models.CodeAlreadyBanned, result.Failed[0].Code)
	assert.Equal(t, uint(3), result.Failed[1].UserID)
	assert.Equal(t, models.CodeNotFound, result.Failed[1].Code)
}

func TestBulkServiceBulkUnbanPerElementIsolation(t *testing.T) {
	bans := noopBanRepo()
	bans.getRestrictingByUserFn = func(_ context.Context, userID uint) (*models.Ban, error) {
		if userID == 2 {
			return nil, nil
		}
		return &models.Ban{ID: "ban", UserID: userID, Status: models.BanStatusActive}, nil
	}
	svc := NewBulkService(newTestBanService(bans, noopUserRepo()))

	result, err := svc.BulkUnban(context.Background(), BulkUnbanInput{
		UserIDs:    []uint{1, 2, 3},
		UnbannedBy: "admin",
		Reason:     "event over",
	})
	require.NoError(t, err)

	assert.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, uint(2), result.Failed[0].UserID)
	assert.Equal(t, models.CodeNoActiveBan, result.Failed[0].Code)
}

func TestBulkServiceBulkBanTooManyTargets(t *testing.T) {
	svc := NewBulkService(newTestBanService(noopBanRepo(), noopUserRepo()))

	ids := make([]uint, maxBulkTargets+1)
	for i := range ids {
		ids[i] = uint(i + 1)
	}
	_, err := svc.BulkBan(context.Background(), BulkBanInput{
		UserIDs:  ids,
		BanType:  models.BanTypePermanent,
		Reason:   "raid",
		BannedBy: "admin",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}
