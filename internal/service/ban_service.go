// Package service implements the business logic of the moderation engine.
package service

import (
	"context"
	"fmt"
	"time"

	"warden/internal/eligibility"
	"warden/internal/models"
	"warden/internal/notifications"
	"warden/internal/observability"
	"warden/internal/repository"
)

// BanService owns the ban lifecycle: creation, manual removal, history and
// statistics. Status changes go through compare-and-set transitions so
// concurrent admins cannot double-apply them.
type BanService struct {
	banRepo  repository.BanRepository
	userRepo repository.UserRepository
	notifier *notifications.Notifier

	// now is the clock, injectable for deterministic tests.
	now func() time.Time
}

// NewBanService returns a new BanService.
func NewBanService(banRepo repository.BanRepository, userRepo repository.UserRepository, notifier *notifications.Notifier) *BanService {
	return &BanService{
		banRepo:  banRepo,
		userRepo: userRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateBanInput carries the fields of a new ban episode.
type CreateBanInput struct {
	UserID        uint           `json:"user_id"`
	BanType       models.BanType `json:"ban_type"`
	DurationHours int            `json:"duration_hours"`
	Reason        string         `json:"reason"`
	Evidence      string         `json:"evidence"`
	Notes         string         `json:"notes"`
	BannedBy      string         `json:"banned_by"`
}

func (in *CreateBanInput) validate() error {
	if in.UserID == 0 {
		return models.NewValidationError("user_id is required")
	}
	if !in.BanType.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown ban type %q", in.BanType))
	}
	if in.Reason == "" {
		return models.NewValidationError("reason is required")
	}
	if in.BannedBy == "" {
		return models.NewValidationError("banned_by is required")
	}
	if in.DurationHours < 0 {
		return models.NewValidationError("duration_hours must not be negative")
	}
	if in.BanType == models.BanTypeTemporary && in.DurationHours <= 0 {
		return models.NewValidationError("temporary bans require a positive duration_hours")
	}
	return nil
}

// CreateBan validates the input and opens an ACTIVE ban episode. A user with
// an ACTIVE or APPEALED ban cannot receive a second one.
func (s *BanService) CreateBan(ctx context.Context, in CreateBanInput) (*models.Ban, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	existing, err := s.banRepo.GetRestrictingByUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewAlreadyBannedError(in.UserID)
	}

	// Only TEMPORARY bans expire by duration; PERMANENT and WARNING
	// carry none and stay open until manually removed.
	if in.BanType != models.BanTypeTemporary {
		in.DurationHours = 0
	}

	createdAt := s.now().UTC()
	ban := &models.Ban{
		UserID:        in.UserID,
		Username:      user.Username,
		BanType:       in.BanType,
		Status:        models.BanStatusActive,
		DurationHours: in.DurationHours,
		Reason:        in.Reason,
		Evidence:      in.Evidence,
		Notes:         in.Notes,
		BannedBy:      in.BannedBy,
		CreatedAt:     createdAt,
		ExpiresAt:     eligibility.ExpiresAt(createdAt, in.DurationHours),
	}

	// The partial unique index closes the check-then-create race: a
	// concurrent CreateBan for the same user comes back as AlreadyBanned.
	if err := s.banRepo.Create(ctx, ban); err != nil {
		return nil, err
	}

	observability.BansCreated.WithLabelValues(string(in.BanType)).Inc()
	s.publish(ctx, notifications.Event{
		Type:     notifications.EventBanCreated,
		BanID:    ban.ID,
		UserID:   ban.UserID,
		Username: ban.Username,
		Status:   ban.Status,
		Actor:    in.BannedBy,
		At:       createdAt,
	})

	return ban, nil
}

// UnbanUser lifts the restricting ban (ACTIVE or APPEALED) for the user by
// transitioning it to MANUALLY_REMOVED.
func (s *BanService) UnbanUser(ctx context.Context, userID uint, unbannedBy, reason string) (*models.Ban, error) {
	if unbannedBy == "" {
		return nil, models.NewValidationError("unbanned_by is required")
	}

	ban, err := s.banRepo.GetRestrictingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ban == nil {
		return nil, models.NewNoActiveBanError(userID)
	}

	now := s.now().UTC()
	applied, err := s.banRepo.TransitionStatus(ctx, ban.ID,
		[]models.BanStatus{models.BanStatusActive, models.BanStatusAppealed},
		map[string]interface{}{
			"status":       models.BanStatusManuallyRemoved,
			"unbanned_by":  unbannedBy,
			"unban_reason": reason,
			"unbanned_at":  now,
		})
	if err != nil {
		return nil, err
	}
	observability.RecordTransition(string(models.BanStatusManuallyRemoved), applied)
	if !applied {
		// A concurrent unban or the expiry sweeper closed it first.
		return nil, models.NewNoActiveBanError(userID)
	}

	s.publish(ctx, notifications.Event{
		Type:     notifications.EventBanRemoved,
		BanID:    ban.ID,
		UserID:   ban.UserID,
		Username: ban.Username,
		Status:   models.BanStatusManuallyRemoved,
		Actor:    unbannedBy,
		At:       now,
	})

	return s.banRepo.GetByID(ctx, ban.ID)
}

// GetBan returns one ban episode by ID.
func (s *BanService) GetBan(ctx context.Context, id string) (*models.Ban, error) {
	return s.banRepo.GetByID(ctx, id)
}

// GetBanHistory returns every ban episode recorded for the user, newest first.
func (s *BanService) GetBanHistory(ctx context.Context, userID uint) ([]models.Ban, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.banRepo.ListByUser(ctx, userID)
}

// GetBanStatus reports whether the user is currently restricted and by which
// episode.
func (s *BanService) GetBanStatus(ctx context.Context, userID uint) (*models.Ban, error) {
	return s.banRepo.GetRestrictingByUser(ctx, userID)
}

// ListBans returns one page of ban episodes matching the filter plus the
// total match count.
func (s *BanService) ListBans(ctx context.Context, filter repository.BanFilter, limit, offset int) ([]models.Ban, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, models.NewValidationError(fmt.Sprintf("unknown status %q", filter.Status))
	}
	if filter.BanType != "" && !filter.BanType.Valid() {
		return nil, 0, models.NewValidationError(fmt.Sprintf("unknown ban type %q", filter.BanType))
	}
	return s.banRepo.List(ctx, filter, limit, offset)
}

// BanStatistics aggregates episode counts per lifecycle status.
type BanStatistics struct {
	Total    int64                      `json:"total"`
	Active   int64                      `json:"active"`
	ByStatus map[models.BanStatus]int64 `json:"by_status"`
}

// Statistics returns aggregate counts over all ban episodes.
func (s *BanService) Statistics(ctx context.Context) (*BanStatistics, error) {
	counts, err := s.banRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &BanStatistics{ByStatus: counts}
	for status, count := range counts {
		stats.Total += count
		if status == models.BanStatusActive || status == models.BanStatusAppealed {
			stats.Active += count
		}
	}
	return stats, nil
}

func (s *BanService) publish(ctx context.Context, event notifications.Event) {
	publishEvent(ctx, s.notifier, event)
}
