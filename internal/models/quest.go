package models

import (
	"time"
)

// Quest step statuses, derived at read time and never stored.
const (
	StepStatusCompleted = "completed"
	StepStatusActive    = "active"
	StepStatusLocked    = "locked"
)

// QuestSet is an ordered sequence of steps. Reference data; the step order
// is immutable once published.
type QuestSet struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Slug      string      `gorm:"uniqueIndex;not null;size:100" json:"slug"`
	Title     string      `gorm:"size:255" json:"title"`
	Active    bool        `gorm:"not null;default:true" json:"active"`
	Steps     []QuestStep `gorm:"foreignKey:QuestSetID" json:"steps,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName specifies the table name for QuestSet model.
func (QuestSet) TableName() string {
	return "quest_sets"
}

// QuestStep is one step of a quest, pointing at a collectible to unlock or
// a merchant to redeem at.
type QuestStep struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	QuestSetID    uint         `gorm:"not null;uniqueIndex:idx_quest_steps_set_order" json:"quest_set_id"`
	StepOrder     int          `gorm:"not null;uniqueIndex:idx_quest_steps_set_order" json:"step_order"`
	CollectibleID *uint        `json:"collectible_id,omitempty"`
	Collectible   *Collectible `gorm:"foreignKey:CollectibleID" json:"collectible,omitempty"`
	MerchantID    *uint        `json:"merchant_id,omitempty"`
	Merchant      *Merchant    `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// TableName specifies the table name for QuestStep model.
func (QuestStep) TableName() string {
	return "quest_steps"
}

// QuestStepCompletion marks a step as done by a user. Same insert-once
// invariant as UnlockRecord.
type QuestStepCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_step_completions_user_step" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	QuestStepID uint      `gorm:"not null;uniqueIndex:idx_step_completions_user_step" json:"quest_step_id"`
	QuestStep   QuestStep `gorm:"foreignKey:QuestStepID" json:"quest_step,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for QuestStepCompletion model.
func (QuestStepCompletion) TableName() string {
	return "quest_step_completions"
}
