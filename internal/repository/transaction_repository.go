package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panscim/desideri-club-engine/internal/models"
)

// TransactionRepository reads the append-only redemption audit log. Writes
// happen only inside the redemption transaction.
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// LatestForPair retrieves the most recent log entry for a (user, merchant)
// pair, or nil when none exists. Source of truth for cooldown checks: it
// runs on the caller's transaction so the read shares the merchant row lock.
func (r *TransactionRepository) LatestForPair(tx *gorm.DB, userID, merchantID uint) (*models.TransactionLog, error) {
	var entry models.TransactionLog
	err := tx.
		Where("user_id = ? AND merchant_id = ?", userID, merchantID).
		Order("created_at DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest transaction: %w", err)
	}
	return &entry, nil
}

// ListByUser retrieves a user's redemption history, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.TransactionLog, error) {
	var entries []models.TransactionLog
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Merchant").
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return entries, nil
}
