package repository

import (
	"context"
	"errors"

	"warden/internal/cache"
	"warden/internal/models"

	"gorm.io/gorm"
)

// TopupRepository defines persistence operations for balance credits.
type TopupRepository interface {
	// CreateWithBalance inserts the top-up and applies its amount to the
	// user's balance and last_topup_at in one transaction.
	CreateWithBalance(ctx context.Context, topup *models.Topup) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Topup, int64, error)
}

type topupRepository struct {
	db *gorm.DB
}

// NewTopupRepository returns a new TopupRepository implementation.
func NewTopupRepository(db *gorm.DB) TopupRepository {
	return &topupRepository{db: db}
}

func (r *topupRepository) CreateWithBalance(ctx context.Context, topup *models.Topup) error {
	err := withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(topup).Error; err != nil {
				return err
			}
			res := tx.Model(&models.User{}).
				Where("id = ?", topup.UserID).
				Updates(map[string]interface{}{
					"balance":       gorm.Expr("balance + ?", topup.Amount),
					"last_topup_at": topup.CreatedAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("User", topup.UserID)
		}
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, topup.UserID)
	return nil
}

func (r *topupRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Topup, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Topup{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var topups []models.Topup
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&topups).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return topups, total, nil
}
