// Package quests derives quest step statuses and performs complete-once
// step writes.
package quests

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panscim/desideri-club-engine/internal/metrics"
	"github.com/panscim/desideri-club-engine/internal/models"
	"github.com/panscim/desideri-club-engine/internal/repository"
	"github.com/panscim/desideri-club-engine/pkg/logger"
)

// Rejection reasons.
var (
	ErrQuestNotFound    = errors.New("quest not found")
	ErrStepNotFound     = errors.New("quest step not found")
	ErrAlreadyCompleted = errors.New("step already completed")
)

// StepProgress is one step with its derived status.
type StepProgress struct {
	Step   models.QuestStep `json:"step"`
	Status string           `json:"status"`
}

// Progress is the derived state of a quest for one user.
type Progress struct {
	Quest *models.QuestSet `json:"quest"`
	Steps []StepProgress   `json:"steps"`
}

// QuestRepository interface for quest operations.
type QuestRepository interface {
	GetSetBySlug(ctx context.Context, slug string) (*models.QuestSet, error)
	GetStepByID(ctx context.Context, id uint) (*models.QuestStep, error)
	CompletedStepIDs(ctx context.Context, userID, questSetID uint) (map[uint]bool, error)
	InsertCompletion(ctx context.Context, completion *models.QuestStepCompletion) error
}

// Service handles quest progress derivation and step completion.
type Service struct {
	quests QuestRepository
	log    *logger.Logger
}

// NewService creates a new quest service.
func NewService(quests *repository.QuestRepository, log *logger.Logger) *Service {
	return &Service{quests: quests, log: log}
}

// NewServiceWithInterfaces creates a new quest service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(quests QuestRepository, log *logger.Logger) *Service {
	return &Service{quests: quests, log: log}
}

// GetProgress derives per-step statuses from the ordered step list and the
// user's completion set. Statuses are never stored: completed steps are in
// the set, the first step not in the set is active, everything after it is
// locked.
func (s *Service) GetProgress(ctx context.Context, userID uint, questSlug string) (*Progress, error) {
	quest, err := s.quests.GetSetBySlug(ctx, questSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, err
	}

	completed, err := s.quests.CompletedStepIDs(ctx, userID, quest.ID)
	if err != nil {
		return nil, err
	}

	return &Progress{Quest: quest, Steps: DeriveStatuses(quest.Steps, completed)}, nil
}

// DeriveStatuses computes the status of each step. steps must already be
// ordered by step_order.
func DeriveStatuses(steps []models.QuestStep, completed map[uint]bool) []StepProgress {
	result := make([]StepProgress, 0, len(steps))
	activeSeen := false
	for _, step := range steps {
		var status string
		switch {
		case completed[step.ID]:
			status = models.StepStatusCompleted
		case !activeSeen:
			status = models.StepStatusActive
			activeSeen = true
		default:
			status = models.StepStatusLocked
		}
		result = append(result, StepProgress{Step: step, Status: status})
	}
	return result
}

// CompleteStep records a step completion exactly once, using the same
// insert-once pattern as the unlock ledger. The caller is responsible for
// only offering the active step's action; the unique index still prevents
// duplicate completion records regardless.
func (s *Service) CompleteStep(ctx context.Context, userID, stepID uint) (*models.QuestStepCompletion, error) {
	if _, err := s.quests.GetStepByID(ctx, stepID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordStepCompletion(metrics.OutcomeRejected)
			return nil, ErrStepNotFound
		}
		return nil, err
	}

	completion := &models.QuestStepCompletion{UserID: userID, QuestStepID: stepID}
	if err := s.quests.InsertCompletion(ctx, completion); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.RecordStepCompletion(metrics.OutcomeRejected)
			return nil, ErrAlreadyCompleted
		}
		metrics.RecordStepCompletion(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to insert completion: %w", err)
	}

	metrics.RecordStepCompletion(metrics.OutcomeSuccess)
	s.log.Info().
		Uint("user_id", userID).
		Uint("step_id", stepID).
		Msg("Quest step completed")

	return completion, nil
}
