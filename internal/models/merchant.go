package models

import (
	"time"
)

// Merchant represents a partner location with a prepaid point balance.
// The balance only decreases, through redemptions; top-up happens outside
// the engine.
type Merchant struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"not null;size:255" json:"name"`
	Code    string `gorm:"uniqueIndex;not null;size:16" json:"code"`
	Balance int64  `gorm:"not null;default:0" json:"balance"`
	// RewardAmount is the base number of points a single redemption
	// grants before the user multiplier is applied.
	RewardAmount int64     `gorm:"not null;default:0" json:"reward_amount"`
	Active       bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Merchant model.
func (Merchant) TableName() string {
	return "merchants"
}
