package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/panscim/desideri-club-engine/internal/cache"
	"github.com/panscim/desideri-club-engine/internal/models"
)

// CollectibleRepository handles collectible reference data, with an optional
// read-through cache on the slug lookup the unlock flow hits on every
// attempt. Cached rows may lag a deactivation by at most the cache TTL.
type CollectibleRepository struct {
	db    *DB
	cache cache.Cache // nil disables caching
}

// NewCollectibleRepository creates a new collectible repository.
func NewCollectibleRepository(db *DB, c cache.Cache) *CollectibleRepository {
	return &CollectibleRepository{db: db, cache: c}
}

// GetBySlug retrieves a collectible by slug, cache-first.
func (r *CollectibleRepository) GetBySlug(ctx context.Context, slug string) (*models.Collectible, error) {
	key := "collectible:slug:" + slug

	if r.cache != nil {
		if val, err := r.cache.Get(ctx, key); err == nil {
			var collectible models.Collectible
			if jerr := json.Unmarshal([]byte(val), &collectible); jerr == nil {
				return &collectible, nil
			}
			// Corrupt entry: drop it and fall through to the store.
			_ = r.cache.Del(ctx, key)
		}
	}

	var collectible models.Collectible
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&collectible).Error; err != nil {
		return nil, fmt.Errorf("failed to get collectible by slug %s: %w", slug, err)
	}

	if r.cache != nil {
		if payload, err := json.Marshal(&collectible); err == nil {
			_ = r.cache.Set(ctx, key, string(payload), 0)
		}
	}
	return &collectible, nil
}

// ListActive retrieves all active collectibles.
func (r *CollectibleRepository) ListActive(ctx context.Context) ([]models.Collectible, error) {
	var collectibles []models.Collectible
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("slug ASC").
		Find(&collectibles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list collectibles: %w", err)
	}
	return collectibles, nil
}
