package service

import (
	"context"
	"fmt"
	"time"

	"warden/internal/models"
	"warden/internal/notifications"
	"warden/internal/observability"
	"warden/internal/repository"
)

// AppealService handles the appeal leg of the ban lifecycle: an ACTIVE ban
// becomes APPEALED while under review, then returns to ACTIVE on denial or
// closes as MANUALLY_REMOVED on grant.
type AppealService struct {
	banRepo  repository.BanRepository
	notifier *notifications.Notifier

	now func() time.Time
}

// NewAppealService returns a new AppealService.
func NewAppealService(banRepo repository.BanRepository, notifier *notifications.Notifier) *AppealService {
	return &AppealService{
		banRepo:  banRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// SubmitAppeal opens an appeal on the ban. Only ACTIVE bans can be appealed;
// the user stays restricted while the review is pending.
func (s *AppealService) SubmitAppeal(ctx context.Context, banID, reason string) (*models.Ban, error) {
	if reason == "" {
		return nil, models.NewValidationError("appeal reason is required")
	}

	ban, err := s.banRepo.GetByID(ctx, banID)
	if err != nil {
		return nil, err
	}
	if ban.Status != models.BanStatusActive {
		return nil, models.NewInvalidStateError(
			fmt.Sprintf("cannot appeal a ban in status %s", ban.Status))
	}

	applied, err := s.banRepo.TransitionStatus(ctx, banID,
		[]models.BanStatus{models.BanStatusActive},
		map[string]interface{}{
			"status":        models.BanStatusAppealed,
			"appeal_reason": reason,
		})
	if err != nil {
		return nil, err
	}
	observability.RecordTransition(string(models.BanStatusAppealed), applied)
	if !applied {
		return nil, models.NewInvalidStateError("ban changed status while the appeal was submitted")
	}

	s.publish(ctx, notifications.EventAppealOpened, ban, models.BanStatusAppealed, "")

	return s.banRepo.GetByID(ctx, banID)
}

// ReviewAppeal closes a pending appeal. GRANT lifts the ban as
// MANUALLY_REMOVED; DENY reinstates it as ACTIVE. Both stamp the decision on
// the episode.
func (s *AppealService) ReviewAppeal(ctx context.Context, banID string, decision models.AppealDecision, reviewedBy, notes string) (*models.Ban, error) {
	if !decision.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown appeal decision %q", decision))
	}
	if reviewedBy == "" {
		return nil, models.NewValidationError("reviewed_by is required")
	}

	ban, err := s.banRepo.GetByID(ctx, banID)
	if err != nil {
		return nil, err
	}
	if ban.Status != models.BanStatusAppealed {
		return nil, models.NewInvalidStateError(
			fmt.Sprintf("cannot review a ban in status %s", ban.Status))
	}

	now := s.now().UTC()
	updates := map[string]interface{}{
		"appeal_decision":    decision,
		"appeal_reviewed_by": reviewedBy,
		"appeal_reviewed_at": now,
	}
	var target models.BanStatus
	if decision == models.AppealDecisionGrant {
		target = models.BanStatusManuallyRemoved
		updates["status"] = target
		updates["unbanned_by"] = reviewedBy
		updates["unbanned_at"] = now
		updates["unban_reason"] = "Appeal granted"
		if notes != "" {
			updates["unban_reason"] = notes
		}
	} else {
		target = models.BanStatusActive
		updates["status"] = target
	}

	applied, err := s.banRepo.TransitionStatus(ctx, banID,
		[]models.BanStatus{models.BanStatusAppealed}, updates)
	if err != nil {
		return nil, err
	}
	observability.RecordTransition(string(target), applied)
	if !applied {
		return nil, models.NewInvalidStateError("ban changed status while the review was recorded")
	}

	s.publish(ctx, notifications.EventAppealReviewed, ban, target, reviewedBy)

	return s.banRepo.GetByID(ctx, banID)
}

func (s *AppealService) publish(ctx context.Context, eventType string, ban *models.Ban, status models.BanStatus, actor string) {
	publishEvent(ctx, s.notifier, notifications.Event{
		Type:     eventType,
		BanID:    ban.ID,
		UserID:   ban.UserID,
		Username: ban.Username,
		Status:   status,
		Actor:    actor,
		At:       s.now().UTC(),
	})
}
