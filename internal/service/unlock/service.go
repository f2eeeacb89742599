// Package unlock implements the unlock ledger: insert-once collectible
// unlocks and the proximity discovery flow.
package unlock

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panscim/desideri-club-engine/internal/geo"
	"github.com/panscim/desideri-club-engine/internal/metrics"
	"github.com/panscim/desideri-club-engine/internal/models"
	"github.com/panscim/desideri-club-engine/internal/repository"
	"github.com/panscim/desideri-club-engine/pkg/logger"
)

// Rejection reasons. These are eligibility outcomes, not faults: callers map
// each to exactly one user-facing message.
var (
	ErrCollectibleNotFound = errors.New("collectible not found")
	ErrNotLocationBound    = errors.New("collectible is not location-bound")
	ErrOutOfRange          = errors.New("out of unlock range")
	ErrAlreadyUnlocked     = errors.New("already unlocked")
)

// UnlockRepository interface for ledger operations.
type UnlockRepository interface {
	IsUnlocked(ctx context.Context, userID, collectibleID uint) (bool, error)
	Insert(ctx context.Context, record *models.UnlockRecord) error
}

// CollectibleRepository interface for reference data lookups.
type CollectibleRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Collectible, error)
}

// Config carries the fallback unlock radii.
type Config struct {
	DefaultRadius float64 // location collectibles, meters
	EventRadius   float64 // event check-ins, meters
}

// Service handles unlock ledger operations.
type Service struct {
	unlocks      UnlockRepository
	collectibles CollectibleRepository
	cfg          Config
	log          *logger.Logger
}

// NewService creates a new unlock service.
func NewService(unlocks *repository.UnlockRepository, collectibles *repository.CollectibleRepository, cfg Config, log *logger.Logger) *Service {
	return &Service{unlocks: unlocks, collectibles: collectibles, cfg: cfg, log: log}
}

// NewServiceWithInterfaces creates a new unlock service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(unlocks UnlockRepository, collectibles CollectibleRepository, cfg Config, log *logger.Logger) *Service {
	return &Service{unlocks: unlocks, collectibles: collectibles, cfg: cfg, log: log}
}

// IsUnlocked checks whether a user has unlocked a collectible.
func (s *Service) IsUnlocked(ctx context.Context, userID, collectibleID uint) (bool, error) {
	return s.unlocks.IsUnlocked(ctx, userID, collectibleID)
}

// Unlock records a collectible unlock exactly once. A concurrent or repeated
// attempt loses against the (user, collectible) unique index and comes back
// as ErrAlreadyUnlocked. No points are credited here; crediting belongs to
// whichever caller grants them.
func (s *Service) Unlock(ctx context.Context, userID, collectibleID uint) (*models.UnlockRecord, error) {
	record := &models.UnlockRecord{
		UserID:        userID,
		CollectibleID: collectibleID,
	}

	err := s.unlocks.Insert(ctx, record)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyUnlocked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert unlock record: %w", err)
	}

	s.log.Info().
		Uint("user_id", userID).
		Uint("collectible_id", collectibleID).
		Msg("Collectible unlocked")

	return record, nil
}

// UnlockNearby is the passive discovery flow: it resolves a collectible by
// slug, verifies the caller's coordinate is inside the unlock radius, then
// records the unlock. A missing or invalid coordinate fails closed as
// ErrOutOfRange.
func (s *Service) UnlockNearby(ctx context.Context, userID uint, slug string, coord *geo.Coord) (*models.UnlockRecord, error) {
	collectible, err := s.collectibles.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectibleNotFound
		}
		return nil, err
	}
	if !collectible.Active {
		return nil, ErrCollectibleNotFound
	}

	if collectible.Latitude == nil || collectible.Longitude == nil {
		metrics.RecordUnlock(collectible.Kind, metrics.OutcomeRejected)
		return nil, ErrNotLocationBound
	}

	target := &geo.Coord{Latitude: *collectible.Latitude, Longitude: *collectible.Longitude}
	if !geo.IsWithin(coord, target, s.radiusFor(collectible)) {
		metrics.RecordUnlock(collectible.Kind, metrics.OutcomeRejected)
		return nil, ErrOutOfRange
	}

	record, err := s.Unlock(ctx, userID, collectible.ID)
	if err != nil {
		if errors.Is(err, ErrAlreadyUnlocked) {
			metrics.RecordUnlock(collectible.Kind, metrics.OutcomeRejected)
		} else {
			metrics.RecordUnlock(collectible.Kind, metrics.OutcomeError)
		}
		return nil, err
	}

	metrics.RecordUnlock(collectible.Kind, metrics.OutcomeSuccess)
	return record, nil
}

func (s *Service) radiusFor(c *models.Collectible) float64 {
	if c.Radius != nil && *c.Radius > 0 {
		return *c.Radius
	}
	if c.Kind == models.CollectibleKindEvent {
		return s.cfg.EventRadius
	}
	return s.cfg.DefaultRadius
}
