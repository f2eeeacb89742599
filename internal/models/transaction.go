package models

import (
	"time"
)

// TransactionLog is the append-only audit record of every redemption. It is
// never updated or deleted and serves as the source of truth for cooldown
// checks.
type TransactionLog struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	UserID          uint      `gorm:"not null;index:idx_tx_user_merchant" json:"user_id"`
	User            User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	MerchantID      uint      `gorm:"not null;index:idx_tx_user_merchant" json:"merchant_id"`
	Merchant        Merchant  `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"`
	BaseAmount      int64     `gorm:"not null" json:"base_amount"`
	Multiplier      float64   `gorm:"not null;default:1" json:"multiplier"`
	EffectiveAmount int64     `gorm:"not null" json:"effective_amount"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for TransactionLog model.
func (TransactionLog) TableName() string {
	return "transaction_logs"
}
