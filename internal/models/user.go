// Package models defines domain models for the loyalty club engine.
package models

import (
	"time"
)

// User represents a club member with a point balance.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email    string `gorm:"size:255" json:"email"`
	// Balance is mutated only inside the mission-claim and redemption
	// transactions.
	Balance             int64      `gorm:"not null;default:0" json:"balance"`
	Multiplier          *float64   `json:"multiplier,omitempty"`
	MultiplierExpiresAt *time.Time `json:"multiplier_expires_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// ActiveMultiplier returns the user's reward multiplier at the given
// instant, or 1.0 when none is set or it has expired.
func (u *User) ActiveMultiplier(now time.Time) float64 {
	if u.Multiplier == nil || u.MultiplierExpiresAt == nil {
		return 1.0
	}
	if !u.MultiplierExpiresAt.After(now) {
		return 1.0
	}
	return *u.Multiplier
}
