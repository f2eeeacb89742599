package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/panscim/desideri-club-engine/internal/cache"
	"github.com/panscim/desideri-club-engine/internal/models"
)

// MerchantRepository handles merchant-related database operations, with an
// optional read-through cache for code lookups. Cached rows are only used to
// resolve a code to a merchant; balance checks always happen on a locked row
// inside the redemption transaction.
type MerchantRepository struct {
	db    *DB
	cache cache.Cache // nil disables caching
}

// NewMerchantRepository creates a new merchant repository.
func NewMerchantRepository(db *DB, c cache.Cache) *MerchantRepository {
	return &MerchantRepository{db: db, cache: c}
}

// GetByCode retrieves a merchant by redemption code, cache-first.
func (r *MerchantRepository) GetByCode(ctx context.Context, code string) (*models.Merchant, error) {
	key := "merchant:code:" + code

	if r.cache != nil {
		if val, err := r.cache.Get(ctx, key); err == nil {
			var merchant models.Merchant
			if jerr := json.Unmarshal([]byte(val), &merchant); jerr == nil {
				return &merchant, nil
			}
			// Corrupt entry: drop it and fall through to the store.
			_ = r.cache.Del(ctx, key)
		}
	}

	var merchant models.Merchant
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&merchant).Error; err != nil {
		return nil, fmt.Errorf("failed to get merchant by code: %w", err)
	}

	if r.cache != nil {
		if payload, err := json.Marshal(&merchant); err == nil {
			_ = r.cache.Set(ctx, key, string(payload), 0)
		}
	}
	return &merchant, nil
}
