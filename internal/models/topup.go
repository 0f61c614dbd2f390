package models

import "time"

// Topup records one balance credit applied to a user by an admin. The
// once-per-window throttle is evaluated against users.last_topup_at, not by
// scanning this table.
type Topup struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedBy string    `gorm:"not null;index" json:"created_by"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for GORM.
func (Topup) TableName() string {
	return "topups"
}
