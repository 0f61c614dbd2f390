package service

import (
	"context"
	"time"

	"warden/internal/middleware"
	"warden/internal/models"
	"warden/internal/notifications"
	"warden/internal/observability"
	"warden/internal/repository"
)

// sweepBatchSize caps how many due bans one pass loads.
const sweepBatchSize = 500

// Sweeper closes out temporary bans whose expiry has passed. Each due ban is
// flipped ACTIVE -> EXPIRED through a compare-and-set, so a pass is
// idempotent and safe to run on several replicas at once: whoever loses the
// race simply skips the row.
type Sweeper struct {
	banRepo  repository.BanRepository
	notifier *notifications.Notifier
	interval time.Duration

	now func() time.Time

	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSweeper returns a new Sweeper running one pass per interval.
func NewSweeper(banRepo repository.BanRepository, notifier *notifications.Notifier, interval time.Duration) *Sweeper {
	return &Sweeper{
		banRepo:  banRepo,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.started = true
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if _, err := s.SweepOnce(ctx); err != nil {
					middleware.Logger.ErrorContext(ctx, "Expiry sweep failed", "error", err)
				}
			}
		}
	}()
}

// Stop halts the sweep loop and waits for the current pass to finish.
// Calling Stop on a sweeper that never started is a no-op.
func (s *Sweeper) Stop() {
	if !s.started {
		return
	}
	close(s.stop)
	<-s.done
}

// SweepOnce expires every due ban and returns how many transitions were
// applied. Individual failures skip the row so one bad episode cannot stall
// the rest of the batch.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()

	due, err := s.banRepo.FindDue(ctx, now, sweepBatchSize)
	if err != nil {
		observability.SweepRuns.WithLabelValues("error").Inc()
		return 0, err
	}

	expired := 0
	for i := range due {
		ban := &due[i]
		applied, err := s.banRepo.TransitionStatus(ctx, ban.ID,
			[]models.BanStatus{models.BanStatusActive},
			map[string]interface{}{"status": models.BanStatusExpired})
		if err != nil {
			middleware.Logger.WarnContext(ctx, "Failed to expire ban",
				"ban_id", ban.ID, "user_id", ban.UserID, "error", err)
			continue
		}
		observability.RecordTransition(string(models.BanStatusExpired), applied)
		if !applied {
			// An admin unbanned (or another replica expired) it first.
			continue
		}

		expired++
		observability.SweepExpired.Inc()
		publishEvent(ctx, s.notifier, notifications.Event{
			Type:     notifications.EventBanExpired,
			BanID:    ban.ID,
			UserID:   ban.UserID,
			Username: ban.Username,
			Status:   models.BanStatusExpired,
			At:       now,
		})
	}

	observability.SweepRuns.WithLabelValues("ok").Inc()
	if expired > 0 {
		middleware.Logger.InfoContext(ctx, "Expiry sweep completed",
			"due", len(due), "expired", expired)
	}
	return expired, nil
}
