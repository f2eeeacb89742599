package models

import (
	"time"
)

// Mission cadences.
const (
	CadenceDaily   = "daily"
	CadenceWeekly  = "weekly"
	CadenceMonthly = "monthly"
	CadenceOneOff  = "one_off"
)

// Mission verification types.
const (
	VerificationButton    = "button"    // auto-approved on claim
	VerificationModerated = "moderated" // submitted, reviewed later
	VerificationAggregate = "aggregate" // derived from other submissions
)

// MissionSubmission statuses.
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusApproved = "approved"
	SubmissionStatusRejected = "rejected"
)

// MissionDefinition describes a recurring or one-off mission. Reference data.
type MissionDefinition struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Code         string `gorm:"uniqueIndex;not null;size:100" json:"code"`
	Title        string `gorm:"size:255" json:"title"`
	Cadence      string `gorm:"not null;size:20" json:"cadence"`
	Verification string `gorm:"not null;size:20;default:button" json:"verification"`
	Reward       int64  `gorm:"not null;default:0" json:"reward"`
	// Aggregate missions count approved submissions of another mission
	// inside the current week and claim once the threshold is reached.
	StreakSource    *string   `gorm:"size:100" json:"streak_source,omitempty"`
	StreakThreshold *int      `json:"streak_threshold,omitempty"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for MissionDefinition model.
func (MissionDefinition) TableName() string {
	return "mission_definitions"
}

// MissionSubmission is one claim of a mission inside one eligibility
// period. The (user, mission, period_key) unique index is the race-safety
// net that guarantees a single active claim per period.
type MissionSubmission struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	UserID         uint              `gorm:"not null;uniqueIndex:idx_submissions_user_mission_period" json:"user_id"`
	User           User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	MissionID      uint              `gorm:"not null;uniqueIndex:idx_submissions_user_mission_period" json:"mission_id"`
	Mission        MissionDefinition `gorm:"foreignKey:MissionID" json:"mission,omitempty"`
	PeriodKey      string            `gorm:"not null;size:20;uniqueIndex:idx_submissions_user_mission_period" json:"period_key"`
	Status         string            `gorm:"not null;size:20;index" json:"status"`
	CreditedAmount int64             `gorm:"not null;default:0" json:"credited_amount"`
	Note           string            `gorm:"type:text" json:"note"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TableName specifies the table name for MissionSubmission model.
func (MissionSubmission) TableName() string {
	return "mission_submissions"
}
