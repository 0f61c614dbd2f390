package service

import (
	"context"
	"time"

	"warden/internal/eligibility"
	"warden/internal/models"
	"warden/internal/notifications"
	"warden/internal/observability"
	"warden/internal/repository"
)

// TopupService credits user balances and enforces the once-per-window
// throttle keyed on users.last_topup_at.
type TopupService struct {
	topupRepo repository.TopupRepository
	userRepo  repository.UserRepository
	notifier  *notifications.Notifier
	window    time.Duration

	now func() time.Time
}

// NewTopupService returns a new TopupService. window is how long a user must
// wait between top-ups; zero disables the throttle.
func NewTopupService(topupRepo repository.TopupRepository, userRepo repository.UserRepository, notifier *notifications.Notifier, window time.Duration) *TopupService {
	return &TopupService{
		topupRepo: topupRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		window:    window,
		now:       time.Now,
	}
}

// Eligibility is the answer to "can this user be topped up right now".
type Eligibility struct {
	User          *models.User `json:"user"`
	Eligible      bool         `json:"eligible"`
	NextAllowedAt *time.Time   `json:"next_allowed_at,omitempty"`
}

// CheckEligibility looks the user up by username or phone (username wins when
// both are given) and evaluates the top-up window against the current time.
func (s *TopupService) CheckEligibility(ctx context.Context, username, phone string) (*Eligibility, error) {
	if username == "" && phone == "" {
		return nil, models.NewValidationError("username or phone is required")
	}

	var user *models.User
	var err error
	if username != "" {
		user, err = s.userRepo.GetByUsername(ctx, username)
	} else {
		user, err = s.userRepo.GetByPhone(ctx, phone)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username+phone)
	}

	return s.eligibilityFor(user), nil
}

func (s *TopupService) eligibilityFor(user *models.User) *Eligibility {
	result := &Eligibility{User: user, Eligible: true}
	if user.LastTopupAt == nil {
		return result
	}

	now := s.now().UTC()
	result.Eligible = eligibility.Eligible(*user.LastTopupAt, s.window, now)
	if !result.Eligible {
		next := eligibility.NextAllowedAt(*user.LastTopupAt, s.window)
		result.NextAllowedAt = &next
	}
	return result
}

// CreateTopupInput carries the fields of a new balance credit.
type CreateTopupInput struct {
	UserID    uint   `json:"user_id"`
	Amount    int64  `json:"amount"`
	Notes     string `json:"notes"`
	CreatedBy string `json:"created_by"`
}

// CreateTopup applies the credit when the user is inside the eligibility
// window. The balance update and the top-up record commit together.
func (s *TopupService) CreateTopup(ctx context.Context, in CreateTopupInput) (*models.Topup, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("user_id is required")
	}
	if in.Amount <= 0 {
		return nil, models.NewValidationError("amount must be positive")
	}
	if in.CreatedBy == "" {
		return nil, models.NewValidationError("created_by is required")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if e := s.eligibilityFor(user); !e.Eligible {
		observability.TopupsRejected.Inc()
		return nil, models.NewInvalidStateError(
			"user was topped up recently, next allowed at " + e.NextAllowedAt.UTC().Format(time.RFC3339))
	}

	topup := &models.Topup{
		UserID:    in.UserID,
		Amount:    in.Amount,
		Notes:     in.Notes,
		CreatedBy: in.CreatedBy,
		CreatedAt: s.now().UTC(),
	}
	if err := s.topupRepo.CreateWithBalance(ctx, topup); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.notifier, notifications.Event{
		Type:     notifications.EventTopupCreated,
		UserID:   user.ID,
		Username: user.Username,
		Actor:    in.CreatedBy,
		At:       topup.CreatedAt,
	})
	return topup, nil
}

// ListTopups returns one page of a user's top-up history plus the total count.
func (s *TopupService) ListTopups(ctx context.Context, userID uint, limit, offset int) ([]models.Topup, int64, error) {
	return s.topupRepo.ListByUser(ctx, userID, limit, offset)
}
