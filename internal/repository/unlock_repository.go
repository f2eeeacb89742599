package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panscim/desideri-club-engine/internal/models"
)

// UnlockRepository is the unlock ledger: the persisted set of
// (user, collectible) unlock records.
type UnlockRepository struct {
	db *DB
}

// NewUnlockRepository creates a new unlock repository.
func NewUnlockRepository(db *DB) *UnlockRepository {
	return &UnlockRepository{db: db}
}

// IsUnlocked checks whether a user has already unlocked a collectible.
func (r *UnlockRepository) IsUnlocked(ctx context.Context, userID, collectibleID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UnlockRecord{}).
		Where("user_id = ? AND collectible_id = ?", userID, collectibleID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check unlock: %w", err)
	}
	return count > 0, nil
}

// Insert attempts the single insert of an unlock record. A duplicate-key
// rejection from the unique index comes back as gorm.ErrDuplicatedKey; the
// caller translates it, so concurrent duplicate attempts resolve to exactly
// one winner without any locking.
func (r *UnlockRepository) Insert(ctx context.Context, record *models.UnlockRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// InsertTx records an unlock inside an existing transaction, tolerating an
// already-unlocked pair. A unique violation would abort the surrounding
// transaction on postgres, so the conflict is absorbed with ON CONFLICT DO
// NOTHING instead of being raised and translated.
func (r *UnlockRepository) InsertTx(tx *gorm.DB, record *models.UnlockRecord) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error
}

// ListByUser retrieves a user's unlock records, newest first.
func (r *UnlockRepository) ListByUser(ctx context.Context, userID uint) ([]models.UnlockRecord, error) {
	var records []models.UnlockRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Collectible").
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	return records, nil
}
