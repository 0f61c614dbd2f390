package service

import (
	"context"

	"warden/internal/models"
)

// BulkService applies ban operations to many users with per-element
// isolation: one failing user never rolls back or aborts the others.
type BulkService struct {
	bans *BanService
}

// NewBulkService returns a new BulkService.
func NewBulkService(bans *BanService) *BulkService {
	return &BulkService{bans: bans}
}

// BulkFailure records why one user in a bulk operation was skipped.
type BulkFailure struct {
	UserID uint   `json:"user_id"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

// BulkResult summarizes a bulk operation.
type BulkResult struct {
	Succeeded []models.Ban  `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// BulkBanInput carries the shared fields applied to every target user.
type BulkBanInput struct {
	UserIDs       []uint         `json:"user_ids"`
	BanType       models.BanType `json:"ban_type"`
	DurationHours int            `json:"duration_hours"`
	Reason        string         `json:"reason"`
	Evidence      string         `json:"evidence"`
	Notes         string         `json:"notes"`
	BannedBy      string         `json:"banned_by"`
}

// maxBulkTargets caps one bulk request.
const maxBulkTargets = 500

// BulkBan bans every listed user with the same parameters. Users that are
// missing or already banned land in Failed; the rest proceed.
func (s *BulkService) BulkBan(ctx context.Context, in BulkBanInput) (*BulkResult, error) {
	if len(in.UserIDs) == 0 {
		return nil, models.NewValidationError("user_ids is required")
	}
	if len(in.UserIDs) > maxBulkTargets {
		return nil, models.NewValidationError("too many users in one bulk operation")
	}

	result := &BulkResult{}
	for _, userID := range in.UserIDs {
		ban, err := s.bans.CreateBan(ctx, CreateBanInput{
			UserID:        userID,
			BanType:       in.BanType,
			DurationHours: in.DurationHours,
			Reason:        in.Reason,
			Evidence:      in.Evidence,
			Notes:         in.Notes,
			BannedBy:      in.BannedBy,
		})
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{
				UserID: userID,
				Code:   models.ErrorCode(err),
				Error:  err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, *ban)
	}
	return result, nil
}

// BulkUnbanInput carries the shared fields of a bulk unban.
type BulkUnbanInput struct {
	UserIDs    []uint `json:"user_ids"`
	UnbannedBy string `json:"unbanned_by"`
	Reason     string `json:"reason"`
}

// BulkUnban lifts the restricting ban of every listed user. Users without a
// restricting ban land in Failed.
func (s *BulkService) BulkUnban(ctx context.Context, in BulkUnbanInput) (*BulkResult, error) {
	if len(in.UserIDs) == 0 {
		return nil, models.NewValidationError("user_ids is required")
	}
	if len(in.UserIDs) > maxBulkTargets {
		return nil, models.NewValidationError("too many users in one bulk operation")
	}

	result := &BulkResult{}
	for _, userID := range in.UserIDs {
		ban, err := s.bans.UnbanUser(ctx, userID, in.UnbannedBy, in.Reason)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{
				UserID: userID,
				Code:   models.ErrorCode(err),
				Error:  err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, *ban)
	}
	return result, nil
}
