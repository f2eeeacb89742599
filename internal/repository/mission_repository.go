package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panscim/desideri-club-engine/internal/models"
)

// MissionRepository handles mission definitions and submissions.
type MissionRepository struct {
	db *DB
}

// NewMissionRepository creates a new mission repository.
func NewMissionRepository(db *DB) *MissionRepository {
	return &MissionRepository{db: db}
}

// GetByCode retrieves an active mission definition by code. Inactive and
// absent missions both come back as gorm.ErrRecordNotFound.
func (r *MissionRepository) GetByCode(ctx context.Context, code string) (*models.MissionDefinition, error) {
	var mission models.MissionDefinition
	err := r.db.WithContext(ctx).
		Where("code = ? AND active = ?", code, true).
		First(&mission).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get mission %s: %w", code, err)
	}
	return &mission, nil
}

// GetSubmission retrieves the submission for a (user, mission, period)
// triple, or nil when there is none.
func (r *MissionRepository) GetSubmission(ctx context.Context, userID, missionID uint, periodKey string) (*models.MissionSubmission, error) {
	var submission models.MissionSubmission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND mission_id = ? AND period_key = ?", userID, missionID, periodKey).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

// GetSubmissionByID retrieves a submission by ID with its mission preloaded.
func (r *MissionRepository) GetSubmissionByID(ctx context.Context, id uint) (*models.MissionSubmission, error) {
	var submission models.MissionSubmission
	err := r.db.WithContext(ctx).Preload("Mission").First(&submission, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission %d: %w", id, err)
	}
	return &submission, nil
}

// HasApprovedSubmission checks whether the user ever had an approved
// submission for a mission, in any period. Used for one-off missions.
func (r *MissionRepository) HasApprovedSubmission(ctx context.Context, userID, missionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MissionSubmission{}).
		Where("user_id = ? AND mission_id = ? AND status = ?", userID, missionID, models.SubmissionStatusApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check approved submission: %w", err)
	}
	return count > 0, nil
}

// CountApprovedInPeriods counts the user's approved submissions of a
// mission whose period keys fall inside the given set. Used by streak
// evaluation; the set is bounded (seven keys for a week).
func (r *MissionRepository) CountApprovedInPeriods(ctx context.Context, userID, missionID uint, periodKeys []string) (int64, error) {
	if len(periodKeys) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MissionSubmission{}).
		Where("user_id = ? AND mission_id = ? AND status = ? AND period_key IN ?",
			userID, missionID, models.SubmissionStatusApproved, periodKeys).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// ListSubmissionsByUser retrieves a user's submissions, newest first.
func (r *MissionRepository) ListSubmissionsByUser(ctx context.Context, userID uint) ([]models.MissionSubmission, error) {
	var submissions []models.MissionSubmission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Mission").
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// ListPending retrieves pending submissions awaiting review, oldest first.
func (r *MissionRepository) ListPending(ctx context.Context) ([]models.MissionSubmission, error) {
	var submissions []models.MissionSubmission
	err := r.db.WithContext(ctx).
		Where("status = ?", models.SubmissionStatusPending).
		Preload("Mission").
		Order("created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	return submissions, nil
}
