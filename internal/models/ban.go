package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BanType classifies the kind of restriction placed on a user.
type BanType string

const (
	BanTypeTemporary BanType = "TEMPORARY"
	BanTypePermanent BanType = "PERMANENT"
	BanTypeWarning   BanType = "WARNING"
)

// Valid reports whether t is a known ban type.
func (t BanType) Valid() bool {
	switch t {
	case BanTypeTemporary, BanTypePermanent, BanTypeWarning:
		return true
	}
	return false
}

// BanStatus is the lifecycle state of a ban episode.
type BanStatus string

const (
	// BanStatusPending exists in the console's status enum but no workflow
	// currently creates it; bans are created ACTIVE.
	BanStatusPending         BanStatus = "PENDING"
	BanStatusActive          BanStatus = "ACTIVE"
	BanStatusExpired         BanStatus = "EXPIRED"
	BanStatusAppealed        BanStatus = "APPEALED"
	BanStatusManuallyRemoved BanStatus = "MANUALLY_REMOVED"
)

// Valid reports whether s is a known ban status.
func (s BanStatus) Valid() bool {
	switch s {
	case BanStatusPending, BanStatusActive, BanStatusExpired,
		BanStatusAppealed, BanStatusManuallyRemoved:
		return true
	}
	return false
}

// AppealDecision is the outcome of an appeal review.
type AppealDecision string

const (
	AppealDecisionGrant AppealDecision = "GRANT"
	AppealDecisionDeny  AppealDecision = "DENY"
)

// Valid reports whether d is a known appeal decision.
func (d AppealDecision) Valid() bool {
	return d == AppealDecisionGrant || d == AppealDecisionDeny
}

// Ban is one restriction episode for a user. Records are append-only: they
// are transitioned between statuses but never deleted, so the table doubles
// as the audit trail.
type Ban struct {
	ID       string  `gorm:"primaryKey;size:36" json:"id"`
	UserID   uint    `gorm:"not null;index:idx_bans_user_status,priority:1" json:"user_id"`
	Username string  `gorm:"not null;index" json:"username"`
	BanType  BanType `gorm:"not null" json:"ban_type"`
	// Status participates in the (user_id, status) index backing the
	// single-active-ban lookup.
	Status        BanStatus `gorm:"not null;index:idx_bans_user_status,priority:2" json:"status"`
	DurationHours int       `gorm:"not null;default:0" json:"duration_hours"`
	Reason        string    `gorm:"type:text;not null" json:"reason"`
	Evidence      string    `gorm:"type:text" json:"evidence,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	BannedBy      string    `gorm:"not null;index" json:"banned_by"`

	CreatedAt time.Time  `gorm:"index:,sort:desc" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`

	UnbannedBy  string     `json:"unbanned_by,omitempty"`
	UnbanReason string     `gorm:"type:text" json:"unban_reason,omitempty"`
	UnbannedAt  *time.Time `json:"unbanned_at,omitempty"`

	AppealReason     string         `gorm:"type:text" json:"appeal_reason,omitempty"`
	AppealDecision   AppealDecision `json:"appeal_decision,omitempty"`
	AppealReviewedBy string         `json:"appeal_reviewed_by,omitempty"`
	AppealReviewedAt *time.Time     `json:"appeal_reviewed_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (Ban) TableName() string {
	return "bans"
}

// BeforeCreate assigns a UUID identifier when none was provided.
func (b *Ban) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// IsRestricting reports whether the ban currently restricts the user.
// An APPEALED ban keeps restricting while the review is pending.
func (b *Ban) IsRestricting() bool {
	return b.Status == BanStatusActive || b.Status == BanStatusAppealed
}
