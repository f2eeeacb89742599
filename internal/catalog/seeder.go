package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panscim/desideri-club-engine/internal/models"
	"github.com/panscim/desideri-club-engine/internal/repository"
	"github.com/panscim/desideri-club-engine/pkg/logger"
)

// Apply upserts the catalog into the store as reference data. Missions and
// collectibles update in place by code/slug; quest step order is immutable
// once published, so steps only update their references, never their order.
func Apply(ctx context.Context, db *repository.DB, c *Catalog, log *logger.Logger) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyMissions(tx, c.Missions); err != nil {
			return err
		}
		if err := applyCollectibles(tx, c.Collectibles); err != nil {
			return err
		}
		return applyQuests(tx, c.Quests)
	})
	if err != nil {
		return fmt.Errorf("failed to apply catalog: %w", err)
	}

	log.Info().
		Int("missions", len(c.Missions)).
		Int("collectibles", len(c.Collectibles)).
		Int("quests", len(c.Quests)).
		Msg("Catalog applied")
	return nil
}

func applyMissions(tx *gorm.DB, seeds []MissionSeed) error {
	for _, seed := range seeds {
		mission := models.MissionDefinition{
			Code:            seed.Code,
			Title:           seed.Title,
			Cadence:         seed.Cadence,
			Verification:    seed.Verification,
			Reward:          seed.Reward,
			StreakSource:    seed.StreakSource,
			StreakThreshold: seed.StreakThreshold,
			Active:          seed.Active == nil || *seed.Active,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "cadence", "verification", "reward", "streak_source", "streak_threshold", "active"}),
		}).Create(&mission).Error
		if err != nil {
			return fmt.Errorf("mission %s: %w", seed.Code, err)
		}
	}
	return nil
}

func applyCollectibles(tx *gorm.DB, seeds []CollectibleSeed) error {
	for _, seed := range seeds {
		collectible := models.Collectible{
			Slug:      seed.Slug,
			Name:      seed.Name,
			Kind:      seed.Kind,
			Latitude:  seed.Latitude,
			Longitude: seed.Longitude,
			Radius:    seed.Radius,
			Code:      seed.Code,
			Active:    seed.Active == nil || *seed.Active,
		}

		if seed.MerchantCode != nil {
			var merchant models.Merchant
			if err := tx.Where("code = ?", *seed.MerchantCode).First(&merchant).Error; err != nil {
				return fmt.Errorf("collectible %s: merchant %s: %w", seed.Slug, *seed.MerchantCode, err)
			}
			collectible.MerchantID = &merchant.ID
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "kind", "latitude", "longitude", "radius", "code", "merchant_id", "active"}),
		}).Create(&collectible).Error
		if err != nil {
			return fmt.Errorf("collectible %s: %w", seed.Slug, err)
		}
	}
	return nil
}

func applyQuests(tx *gorm.DB, seeds []QuestSeed) error {
	for _, seed := range seeds {
		set := models.QuestSet{Slug: seed.Slug, Title: seed.Title, Active: true}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "active"}),
		}).Create(&set).Error
		if err != nil {
			return fmt.Errorf("quest %s: %w", seed.Slug, err)
		}
		if set.ID == 0 {
			// Upsert hit the conflict path; re-read for the ID.
			if err := tx.Where("slug = ?", seed.Slug).First(&set).Error; err != nil {
				return fmt.Errorf("quest %s: %w", seed.Slug, err)
			}
		}

		for _, stepSeed := range seed.Steps {
			step := models.QuestStep{QuestSetID: set.ID, StepOrder: stepSeed.Order}

			if stepSeed.CollectibleSlug != nil {
				var collectible models.Collectible
				if err := tx.Where("slug = ?", *stepSeed.CollectibleSlug).First(&collectible).Error; err != nil {
					return fmt.Errorf("quest %s step %d: %w", seed.Slug, stepSeed.Order, err)
				}
				step.CollectibleID = &collectible.ID
			}
			if stepSeed.MerchantCode != nil {
				var merchant models.Merchant
				if err := tx.Where("code = ?", *stepSeed.MerchantCode).First(&merchant).Error; err != nil {
					return fmt.Errorf("quest %s step %d: %w", seed.Slug, stepSeed.Order, err)
				}
				step.MerchantID = &merchant.ID
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "quest_set_id"}, {Name: "step_order"}},
				DoUpdates: clause.AssignmentColumns([]string{"collectible_id", "merchant_id"}),
			}).Create(&step).Error
			if err != nil {
				return fmt.Errorf("quest %s step %d: %w", seed.Slug, stepSeed.Order, err)
			}
		}
	}
	return nil
}
