package models

import (
	"time"
)

// Collectible kinds.
const (
	CollectibleKindLocation = "location"
	CollectibleKindCode     = "code"
	CollectibleKindEvent    = "event"
)

// Collectible is a unit users unlock by visiting a place, checking in at a
// time-boxed event, or redeeming a merchant code. Reference data: the engine
// never mutates it.
type Collectible struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Slug string `gorm:"uniqueIndex;not null;size:100" json:"slug"`
	Name string `gorm:"not null;size:255" json:"name"`
	Kind string `gorm:"not null;size:20;index" json:"kind"`
	// Location-bound fields. Nil for code-bound collectibles.
	Latitude  *float64 `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`
	Radius    *float64 `json:"radius,omitempty"` // meters
	// Code-bound fields. The code is shared with the merchant record.
	Code       *string   `gorm:"size:16" json:"code,omitempty"`
	MerchantID *uint     `gorm:"index" json:"merchant_id,omitempty"`
	Merchant   *Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for Collectible model.
func (Collectible) TableName() string {
	return "collectibles"
}

// UnlockRecord marks a collectible as unlocked by a user. At most one row
// per (user, collectible), enforced by a unique index rather than
// application-level locking.
type UnlockRecord struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;uniqueIndex:idx_unlocks_user_collectible" json:"user_id"`
	User          User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CollectibleID uint        `gorm:"not null;uniqueIndex:idx_unlocks_user_collectible" json:"collectible_id"`
	Collectible   Collectible `gorm:"foreignKey:CollectibleID" json:"collectible,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TableName specifies the table name for UnlockRecord model.
func (UnlockRecord) TableName() string {
	return "unlock_records"
}
