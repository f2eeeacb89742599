// Package missions implements the mission claim coordinator: once-per-period
// claims, moderated submissions and weekly streak evaluation.
package missions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/panscim/desideri-club-engine/internal/clock"
	"github.com/panscim/desideri-club-engine/internal/metrics"
	"github.com/panscim/desideri-club-engine/internal/models"
	"github.com/panscim/desideri-club-engine/internal/repository"
	"github.com/panscim/desideri-club-engine/pkg/logger"
)

// Rejection reasons.
var (
	ErrMissionNotFound       = errors.New("mission not found")
	ErrWrongVerificationType = errors.New("wrong verification type")
	ErrAlreadyClaimedPeriod  = errors.New("already claimed this period")
	ErrAlreadyClaimedOnce    = errors.New("already claimed")
	ErrStreakNotReached      = errors.New("streak threshold not reached")
	ErrSubmissionNotPending  = errors.New("submission is not pending")
)

// ClaimResult is the success payload of a claim.
type ClaimResult struct {
	Submission *models.MissionSubmission `json:"submission"`
	PeriodKey  string                    `json:"period_key"`
	ResetAt    *time.Time                `json:"reset_at,omitempty"`
}

// Service coordinates mission eligibility checks and claims. It is
// stateless: the single-claim-per-period guarantee comes from the
// (user, mission, period_key) unique index, never from in-process locks.
type Service struct {
	db       *repository.DB
	missions *repository.MissionRepository
	loc      *time.Location
	log      *logger.Logger
}

// NewService creates a new mission service. loc is the club's fixed civil
// time zone; every period boundary is computed in it.
func NewService(db *repository.DB, missions *repository.MissionRepository, loc *time.Location, log *logger.Logger) *Service {
	return &Service{db: db, missions: missions, loc: loc, log: log}
}

// Claim attempts a button-style (auto-approved) mission claim for the
// current period.
func (s *Service) Claim(ctx context.Context, userID uint, missionCode string, now time.Time) (*ClaimResult, error) {
	mission, err := s.loadMission(ctx, missionCode)
	if err != nil {
		return nil, err
	}
	if mission.Verification != models.VerificationButton {
		metrics.RecordClaim(mission.Cadence, metrics.OutcomeRejected)
		return nil, ErrWrongVerificationType
	}

	periodKey, resetAt, err := clock.PeriodKey(mission.Cadence, now, s.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to compute period key: %w", err)
	}

	if err := s.checkEligibility(ctx, userID, mission, periodKey); err != nil {
		metrics.RecordClaim(mission.Cadence, metrics.OutcomeRejected)
		return nil, err
	}

	submission, err := s.insertClaim(ctx, userID, mission, periodKey)
	if err != nil {
		if errors.Is(err, ErrAlreadyClaimedPeriod) {
			metrics.RecordClaim(mission.Cadence, metrics.OutcomeRejected)
		} else {
			metrics.RecordClaim(mission.Cadence, metrics.OutcomeError)
		}
		return nil, err
	}

	metrics.RecordClaim(mission.Cadence, metrics.OutcomeSuccess)
	s.log.Info().
		Uint("user_id", userID).
		Str("mission", mission.Code).
		Str("period_key", periodKey).
		Int64("reward", mission.Reward).
		Msg("Mission claimed")

	return &ClaimResult{Submission: submission, PeriodKey: periodKey, ResetAt: resetAt}, nil
}

// Submit files a moderated mission for review. No points are credited until
// a reviewer approves it; the pending row already occupies the period slot.
func (s *Service) Submit(ctx context.Context, userID uint, missionCode, note string, now time.Time) (*models.MissionSubmission, error) {
	mission, err := s.loadMission(ctx, missionCode)
	if err != nil {
		return nil, err
	}
	if mission.Verification != models.VerificationModerated {
		return nil, ErrWrongVerificationType
	}

	periodKey, _, err := clock.PeriodKey(mission.Cadence, now, s.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to compute period key: %w", err)
	}

	if err := s.checkEligibility(ctx, userID, mission, periodKey); err != nil {
		return nil, err
	}

	submission := &models.MissionSubmission{
		UserID:    userID,
		MissionID: mission.ID,
		PeriodKey: periodKey,
		Status:    models.SubmissionStatusPending,
		Note:      note,
	}
	if err := s.db.WithContext(ctx).Create(submission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyClaimedPeriod
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return submission, nil
}

// Review finalizes a pending submission. Approval credits the mission
// reward in the same transaction; rejection deletes the row so the user may
// retry within the period.
func (s *Service) Review(ctx context.Context, submissionID uint, approve bool) (*models.MissionSubmission, error) {
	submission, err := s.missions.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}
	if submission.Status != models.SubmissionStatusPending {
		return nil, ErrSubmissionNotPending
	}

	if !approve {
		if err := s.db.WithContext(ctx).Delete(&models.MissionSubmission{}, submission.ID).Error; err != nil {
			return nil, fmt.Errorf("failed to reject submission: %w", err)
		}
		submission.Status = models.SubmissionStatusRejected
		return submission, nil
	}

	reward := submission.Mission.Reward
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MissionSubmission{}).
			Where("id = ? AND status = ?", submission.ID, models.SubmissionStatusPending).
			Updates(map[string]interface{}{
				"status":          models.SubmissionStatusApproved,
				"credited_amount": reward,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSubmissionNotPending
		}
		return creditBalance(tx, submission.UserID, reward)
	})
	if err != nil {
		if errors.Is(err, ErrSubmissionNotPending) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to approve submission: %w", err)
	}

	submission.Status = models.SubmissionStatusApproved
	submission.CreditedAmount = reward
	metrics.PointsCreditedTotal.WithLabelValues("mission").Add(float64(reward))
	return submission, nil
}

// History retrieves a user's submissions, newest first.
func (s *Service) History(ctx context.Context, userID uint) ([]models.MissionSubmission, error) {
	return s.missions.ListSubmissionsByUser(ctx, userID)
}

// Pending retrieves the moderated submissions awaiting review, oldest first.
func (s *Service) Pending(ctx context.Context) ([]models.MissionSubmission, error) {
	return s.missions.ListPending(ctx)
}

// EvaluateStreak checks an aggregate mission ("N approved dailies this
// week") and claims it when the threshold is met. The claim uses the week's
// period key, so the streak mission obeys the same single-claim-per-period
// guarantee as every other mission.
//
// The count is recomputed from submissions on every call rather than kept
// in a counter; the scan is bounded at seven rows per source mission.
func (s *Service) EvaluateStreak(ctx context.Context, userID uint, streakCode string, now time.Time) (*ClaimResult, error) {
	streak, err := s.loadMission(ctx, streakCode)
	if err != nil {
		return nil, err
	}
	if streak.Verification != models.VerificationAggregate {
		return nil, ErrWrongVerificationType
	}
	if streak.StreakSource == nil || streak.StreakThreshold == nil {
		return nil, fmt.Errorf("mission %s has no streak configuration", streak.Code)
	}

	source, err := s.loadMission(ctx, *streak.StreakSource)
	if err != nil {
		return nil, err
	}

	weekStart, weekEnd := clock.WeekWindow(now, s.loc)
	keys := clock.DailyKeysIn(weekStart, weekEnd, s.loc)

	count, err := s.missions.CountApprovedInPeriods(ctx, userID, source.ID, keys)
	if err != nil {
		return nil, err
	}
	if count < int64(*streak.StreakThreshold) {
		return nil, ErrStreakNotReached
	}

	periodKey, resetAt, err := clock.PeriodKey(models.CadenceWeekly, now, s.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to compute period key: %w", err)
	}

	if err := s.checkEligibility(ctx, userID, streak, periodKey); err != nil {
		return nil, err
	}

	submission, err := s.insertClaim(ctx, userID, streak, periodKey)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("user_id", userID).
		Str("mission", streak.Code).
		Int64("count", count).
		Msg("Streak mission claimed")

	return &ClaimResult{Submission: submission, PeriodKey: periodKey, ResetAt: resetAt}, nil
}

func (s *Service) loadMission(ctx context.Context, code string) (*models.MissionDefinition, error) {
	mission, err := s.missions.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}
	return mission, nil
}

// checkEligibility applies the pre-insert checks. They are advisory: the
// unique index remains the final race-safety net.
func (s *Service) checkEligibility(ctx context.Context, userID uint, mission *models.MissionDefinition, periodKey string) error {
	if mission.Cadence == models.CadenceOneOff {
		claimed, err := s.missions.HasApprovedSubmission(ctx, userID, mission.ID)
		if err != nil {
			return err
		}
		if claimed {
			return ErrAlreadyClaimedOnce
		}
	}

	existing, err := s.missions.GetSubmission(ctx, userID, mission.ID, periodKey)
	if err != nil {
		return err
	}
	if existing != nil &&
		(existing.Status == models.SubmissionStatusPending || existing.Status == models.SubmissionStatusApproved) {
		return ErrAlreadyClaimedPeriod
	}
	return nil
}

// insertClaim inserts an approved submission and credits the reward in one
// transaction. A duplicate-key rejection from the (user, mission, period)
// index is translated to ErrAlreadyClaimedPeriod, never surfaced as a fault.
func (s *Service) insertClaim(ctx context.Context, userID uint, mission *models.MissionDefinition, periodKey string) (*models.MissionSubmission, error) {
	submission := &models.MissionSubmission{
		UserID:         userID,
		MissionID:      mission.ID,
		PeriodKey:      periodKey,
		Status:         models.SubmissionStatusApproved,
		CreditedAmount: mission.Reward,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return err
		}
		return creditBalance(tx, userID, mission.Reward)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyClaimedPeriod
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert claim: %w", err)
	}

	metrics.PointsCreditedTotal.WithLabelValues("mission").Add(float64(mission.Reward))
	return submission, nil
}

func creditBalance(tx *gorm.DB, userID uint, amount int64) error {
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}
