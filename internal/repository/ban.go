package repository

import (
	"context"
	"errors"
	"time"

	"warden/internal/cache"
	"warden/internal/models"

	"gorm.io/gorm"
)

// BanFilter narrows List queries. Zero values mean "any".
type BanFilter struct {
	UserID   uint
	Username string
	Status   models.BanStatus
	BanType  models.BanType
	BannedBy string
}

// BanRepository defines persistence operations for ban episodes.
type BanRepository interface {
	Create(ctx context.Context, ban *models.Ban) error
	GetByID(ctx context.Context, id string) (*models.Ban, error)
	GetRestrictingByUser(ctx context.Context, userID uint) (*models.Ban, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Ban, error)
	List(ctx context.Context, filter BanFilter, limit, offset int) ([]models.Ban, int64, error)
	TransitionStatus(ctx context.Context, id string, from []models.BanStatus, updates map[string]interface{}) (bool, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]models.Ban, error)
	CountByStatus(ctx context.Context) (map[models.BanStatus]int64, error)
}

type banRepository struct {
	db *gorm.DB
}

// NewBanRepository returns a new BanRepository implementation.
func NewBanRepository(db *gorm.DB) BanRepository {
	return &banRepository{db: db}
}

func (r *banRepository) Create(ctx context.Context, ban *models.Ban) error {
	err := withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Create(ban).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			// The partial unique index on (user_id) WHERE status='ACTIVE'
			// lost a race with a concurrent ban of the same user.
			return models.NewAlreadyBannedError(ban.UserID)
		}
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateBans(ctx, ban.UserID)
	return nil
}

func (r *banRepository) GetByID(ctx context.Context, id string) (*models.Ban, error) {
	var ban models.Ban
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ban).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Ban", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &ban, nil
}

// GetRestrictingByUser returns the ban currently restricting the user, which
// is ACTIVE or APPEALED. Returns nil, nil when the user is unrestricted.
func (r *banRepository) GetRestrictingByUser(ctx context.Context, userID uint) (*models.Ban, error) {
	var ban models.Ban
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID,
			[]models.BanStatus{models.BanStatusActive, models.BanStatusAppealed}).
		Order("created_at DESC").
		First(&ban).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &ban, nil
}

func (r *banRepository) ListByUser(ctx context.Context, userID uint) ([]models.Ban, error) {
	var bans []models.Ban

	err := cache.Aside(ctx, cache.BanHistoryKey(userID), &bans, cache.BanHistoryTTL, func() error {
		if err := r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Find(&bans).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bans, nil
}

func (r *banRepository) List(ctx context.Context, filter BanFilter, limit, offset int) ([]models.Ban, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Ban{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Username != "" {
		query = query.Where("username = ?", filter.Username)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BanType != "" {
		query = query.Where("ban_type = ?", filter.BanType)
	}
	if filter.BannedBy != "" {
		query = query.Where("banned_by = ?", filter.BannedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var bans []models.Ban
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bans).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return bans, total, nil
}

// TransitionStatus performs a compare-and-set state change: the row is only
// updated when its current status is one of from. Returns false when a
// concurrent writer got there first (zero rows matched).
func (r *banRepository) TransitionStatus(ctx context.Context, id string, from []models.BanStatus, updates map[string]interface{}) (bool, error) {
	var affected int64
	err := withRetry(ctx, func() error {
		res := r.db.WithContext(ctx).
			Model(&models.Ban{}).
			Where("id = ? AND status IN ?", id, from).
			Updates(updates)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return false, err
		}
		return false, models.NewInternalError(err)
	}
	if affected == 0 {
		return false, nil
	}

	var ban models.Ban
	if r.db.WithContext(ctx).Select("user_id").Where("id = ?", id).First(&ban).Error == nil {
		cache.InvalidateBans(ctx, ban.UserID)
	}
	return true, nil
}

// FindDue returns ACTIVE temporary bans whose expiry timestamp has passed.
func (r *banRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]models.Ban, error) {
	var bans []models.Ban
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.BanStatusActive, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&bans).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return bans, nil
}

func (r *banRepository) CountByStatus(ctx context.Context) (map[models.BanStatus]int64, error) {
	type statusCount struct {
		Status models.BanStatus
		Count  int64
	}

	var rows []statusCount
	err := cache.Aside(ctx, cache.BanStatsKey, &rows, cache.BanStatsTTL, func() error {
		if err := r.db.WithContext(ctx).
			Model(&models.Ban{}).
			Select("status, COUNT(*) as count").
			Group("status").
			Scan(&rows).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[models.BanStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
