package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/panscim/desideri-club-engine/internal/models"
)

// QuestRepository handles quest sets, steps and completions.
type QuestRepository struct {
	db *DB
}

// NewQuestRepository creates a new quest repository.
func NewQuestRepository(db *DB) *QuestRepository {
	return &QuestRepository{db: db}
}

// GetSetBySlug retrieves an active quest set with its steps in order.
func (r *QuestRepository) GetSetBySlug(ctx context.Context, slug string) (*models.QuestSet, error) {
	var set models.QuestSet
	err := r.db.WithContext(ctx).
		Where("slug = ? AND active = ?", slug, true).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		First(&set).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get quest set %s: %w", slug, err)
	}
	return &set, nil
}

// GetStepByID retrieves a quest step.
func (r *QuestRepository) GetStepByID(ctx context.Context, id uint) (*models.QuestStep, error) {
	var step models.QuestStep
	if err := r.db.WithContext(ctx).First(&step, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get quest step %d: %w", id, err)
	}
	return &step, nil
}

// CompletedStepIDs returns the set of step IDs a user has completed within
// a quest set.
func (r *QuestRepository) CompletedStepIDs(ctx context.Context, userID, questSetID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.QuestStepCompletion{}).
		Joins("JOIN quest_steps ON quest_steps.id = quest_step_completions.quest_step_id").
		Where("quest_step_completions.user_id = ? AND quest_steps.quest_set_id = ?", userID, questSetID).
		Pluck("quest_step_completions.quest_step_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get completed steps: %w", err)
	}

	completed := make(map[uint]bool, len(ids))
	for _, id := range ids {
		completed[id] = true
	}
	return completed, nil
}

// InsertCompletion attempts the single insert of a step completion. The
// unique index on (user, step) rejects duplicates as gorm.ErrDuplicatedKey.
func (r *QuestRepository) InsertCompletion(ctx context.Context, completion *models.QuestStepCompletion) error {
	return r.db.WithContext(ctx).Create(completion).Error
}
