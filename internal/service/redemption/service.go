// Package redemption implements the atomic code redemption: merchant debit,
// user credit and audit append as one unit.
package redemption

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panscim/desideri-club-engine/internal/metrics"
	"github.com/panscim/desideri-club-engine/internal/models"
	"github.com/panscim/desideri-club-engine/internal/repository"
	"github.com/panscim/desideri-club-engine/pkg/logger"
)

// Rejection reasons.
var (
	ErrCodeNotFound        = errors.New("code not found")
	ErrMerchantInactive    = errors.New("merchant inactive")
	ErrInsufficientBalance = errors.New("insufficient merchant balance")
	ErrCooldownActive      = errors.New("cooldown active")
	ErrUserNotFound        = errors.New("user not found")
)

// Receipt is the success payload of a redemption.
type Receipt struct {
	TransactionID   string    `json:"transaction_id"`
	BaseAmount      int64     `json:"base_amount"`
	Multiplier      float64   `json:"multiplier"`
	EffectiveAmount int64     `json:"effective_amount"`
	MerchantBalance int64     `json:"merchant_balance"`
	RedeemedAt      time.Time `json:"redeemed_at"`
}

// MerchantRepository interface for code resolution.
type MerchantRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Merchant, error)
}

// TransactionRepository interface for the in-transaction cooldown read.
type TransactionRepository interface {
	LatestForPair(tx *gorm.DB, userID, merchantID uint) (*models.TransactionLog, error)
}

// UnlockRepository interface for the linked-collectible unlock write.
type UnlockRepository interface {
	InsertTx(tx *gorm.DB, record *models.UnlockRecord) error
}

// Config carries redemption settings.
type Config struct {
	// Cooldown is the minimum gap between two redemptions by the same
	// (user, merchant) pair.
	Cooldown time.Duration
}

// Service performs redemptions. Every step from the balance check to the
// audit append runs under one transaction with the merchant and user rows
// locked, so two simultaneous redemptions cannot jointly overdraw a
// merchant.
type Service struct {
	db           *repository.DB
	merchants    MerchantRepository
	transactions TransactionRepository
	unlocks      UnlockRepository
	cfg          Config
	log          *logger.Logger
}

// NewService creates a new redemption service.
func NewService(db *repository.DB, merchants *repository.MerchantRepository, transactions *repository.TransactionRepository, unlocks *repository.UnlockRepository, cfg Config, log *logger.Logger) *Service {
	return &Service{db: db, merchants: merchants, transactions: transactions, unlocks: unlocks, cfg: cfg, log: log}
}

// NewServiceWithInterfaces creates a new redemption service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(db *repository.DB, merchants MerchantRepository, transactions TransactionRepository, unlocks UnlockRepository, cfg Config, log *logger.Logger) *Service {
	return &Service{db: db, merchants: merchants, transactions: transactions, unlocks: unlocks, cfg: cfg, log: log}
}

// Redeem validates a redemption code and commits the balance debit, user
// credit and audit entry atomically. Each rejection reason maps to exactly
// one user-facing message; a store fault aborts with no partial state.
func (s *Service) Redeem(ctx context.Context, userID uint, code string, now time.Time) (*Receipt, error) {
	// Resolve the code outside the transaction (cache-assisted). The
	// cached row is only trusted for existence; everything that matters
	// is re-read under lock below.
	merchant, err := s.merchants.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordRedemption(metrics.OutcomeRejected, 0, 0)
			return nil, ErrCodeNotFound
		}
		metrics.RecordRedemption(metrics.OutcomeError, 0, 0)
		return nil, err
	}
	if !merchant.Active {
		metrics.RecordRedemption(metrics.OutcomeRejected, 0, 0)
		return nil, ErrMerchantInactive
	}

	var receipt *Receipt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Merchant
		if err := lockForUpdate(tx).First(&locked, merchant.ID).Error; err != nil {
			return fmt.Errorf("failed to lock merchant row: %w", err)
		}
		if !locked.Active {
			return ErrMerchantInactive
		}

		base := locked.RewardAmount
		if locked.Balance < base {
			return ErrInsufficientBalance
		}

		last, err := s.transactions.LatestForPair(tx, userID, locked.ID)
		if err != nil {
			return err
		}
		if last != nil && now.Sub(last.CreatedAt) < s.cfg.Cooldown {
			return ErrCooldownActive
		}

		var user models.User
		if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user row: %w", err)
		}

		multiplier := user.ActiveMultiplier(now)
		// Floor, never round: a fractional point is never invented.
		effective := int64(math.Floor(float64(base) * multiplier))

		if err := tx.Model(&models.Merchant{}).
			Where("id = ?", locked.ID).
			UpdateColumn("balance", gorm.Expr("balance - ?", base)).Error; err != nil {
			return fmt.Errorf("failed to debit merchant: %w", err)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			UpdateColumn("balance", gorm.Expr("balance + ?", effective)).Error; err != nil {
			return fmt.Errorf("failed to credit user: %w", err)
		}

		entry := &models.TransactionLog{
			ID:              uuid.NewString(),
			UserID:          user.ID,
			MerchantID:      locked.ID,
			BaseAmount:      base,
			Multiplier:      multiplier,
			EffectiveAmount: effective,
			CreatedAt:       now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append transaction log: %w", err)
		}

		// A code-bound collectible linked to this merchant unlocks on
		// first redemption. Already unlocked is not an error.
		if err := s.recordLinkedUnlock(tx, user.ID, locked.ID); err != nil {
			return err
		}

		receipt = &Receipt{
			TransactionID:   entry.ID,
			BaseAmount:      base,
			Multiplier:      multiplier,
			EffectiveAmount: effective,
			MerchantBalance: locked.Balance - base,
			RedeemedAt:      now,
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMerchantInactive),
			errors.Is(err, ErrInsufficientBalance),
			errors.Is(err, ErrCooldownActive),
			errors.Is(err, ErrUserNotFound):
			metrics.RecordRedemption(metrics.OutcomeRejected, 0, 0)
		default:
			metrics.RecordRedemption(metrics.OutcomeError, 0, 0)
		}
		return nil, err
	}

	metrics.RecordRedemption(metrics.OutcomeSuccess, receipt.BaseAmount, receipt.EffectiveAmount)
	s.log.Info().
		Uint("user_id", userID).
		Uint("merchant_id", merchant.ID).
		Str("transaction_id", receipt.TransactionID).
		Int64("effective_amount", receipt.EffectiveAmount).
		Float64("multiplier", receipt.Multiplier).
		Msg("Redemption committed")

	return receipt, nil
}

func (s *Service) recordLinkedUnlock(tx *gorm.DB, userID, merchantID uint) error {
	var collectibles []models.Collectible
	err := tx.Where("merchant_id = ? AND active = ?", merchantID, true).
		Limit(1).
		Find(&collectibles).Error
	if err != nil {
		return fmt.Errorf("failed to load linked collectible: %w", err)
	}
	if len(collectibles) == 0 {
		return nil
	}

	record := &models.UnlockRecord{UserID: userID, CollectibleID: collectibles[0].ID}
	if err := s.unlocks.InsertTx(tx, record); err != nil {
		return fmt.Errorf("failed to record linked unlock: %w", err)
	}
	return nil
}

// lockForUpdate applies a row lock on dialects that support it. SQLite has
// no FOR UPDATE; its single-writer model covers the test databases.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
