// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is a platform account visible to the admin console. The moderation
// engine treats it as a directory entry: it validates existence and reads
// display fields, balance, and the top-up clock.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"unique;not null" json:"username"`
	Email       string     `gorm:"unique;not null" json:"email"`
	Phone       string     `gorm:"index" json:"phone,omitempty"`
	Password    string     `gorm:"not null" json:"-"`
	IsAdmin     bool       `gorm:"default:false" json:"is_admin"`
	Balance     int64      `gorm:"not null;default:0" json:"balance"`
	LastTopupAt *time.Time `json:"last_topup_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}
