// Package catalog loads the club's reference data (missions, collectibles,
// quests) from a YAML seed file. Rows are closed structs with required
// fields checked at load time; nothing downstream inspects optional fields
// ad hoc.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/panscim/desideri-club-engine/internal/models"
)

// Catalog is the parsed seed file.
type Catalog struct {
	Missions     []MissionSeed     `yaml:"missions"`
	Collectibles []CollectibleSeed `yaml:"collectibles"`
	Quests       []QuestSeed       `yaml:"quests"`
}

// MissionSeed describes one mission definition.
type MissionSeed struct {
	Code            string  `yaml:"code"`
	Title           string  `yaml:"title"`
	Cadence         string  `yaml:"cadence"`
	Verification    string  `yaml:"verification"`
	Reward          int64   `yaml:"reward"`
	StreakSource    *string `yaml:"streak_source"`
	StreakThreshold *int    `yaml:"streak_threshold"`
	Active          *bool   `yaml:"active"`
}

// CollectibleSeed describes one collectible.
type CollectibleSeed struct {
	Slug         string   `yaml:"slug"`
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	Latitude     *float64 `yaml:"latitude"`
	Longitude    *float64 `yaml:"longitude"`
	Radius       *float64 `yaml:"radius"`
	Code         *string  `yaml:"code"`
	MerchantCode *string  `yaml:"merchant_code"`
	Active       *bool    `yaml:"active"`
}

// QuestSeed describes one quest set with its ordered steps.
type QuestSeed struct {
	Slug  string     `yaml:"slug"`
	Title string     `yaml:"title"`
	Steps []StepSeed `yaml:"steps"`
}

// StepSeed references either a collectible or a merchant.
type StepSeed struct {
	Order           int     `yaml:"order"`
	CollectibleSlug *string `yaml:"collectible"`
	MerchantCode    *string `yaml:"merchant"`
}

var (
	validCadences = map[string]bool{
		models.CadenceDaily:   true,
		models.CadenceWeekly:  true,
		models.CadenceMonthly: true,
		models.CadenceOneOff:  true,
	}
	validVerifications = map[string]bool{
		models.VerificationButton:    true,
		models.VerificationModerated: true,
		models.VerificationAggregate: true,
	}
	validKinds = map[string]bool{
		models.CollectibleKindLocation: true,
		models.CollectibleKindCode:     true,
		models.CollectibleKindEvent:    true,
	}
)

// Load reads and validates a catalog file. Unknown YAML fields are errors.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Validate checks every seed row against the closed-struct rules.
func (c *Catalog) Validate() error {
	missionCodes := make(map[string]bool)
	for i := range c.Missions {
		m := &c.Missions[i]
		if m.Code == "" {
			return fmt.Errorf("mission %d: code is required", i)
		}
		if missionCodes[m.Code] {
			return fmt.Errorf("mission %s: duplicate code", m.Code)
		}
		missionCodes[m.Code] = true
		if !validCadences[m.Cadence] {
			return fmt.Errorf("mission %s: invalid cadence %q", m.Code, m.Cadence)
		}
		if m.Verification == "" {
			m.Verification = models.VerificationButton
		}
		if !validVerifications[m.Verification] {
			return fmt.Errorf("mission %s: invalid verification %q", m.Code, m.Verification)
		}
		if m.Reward < 0 {
			return fmt.Errorf("mission %s: negative reward", m.Code)
		}
		if m.Verification == models.VerificationAggregate {
			if m.StreakSource == nil || m.StreakThreshold == nil || *m.StreakThreshold < 1 {
				return fmt.Errorf("mission %s: aggregate missions need streak_source and streak_threshold", m.Code)
			}
			if !missionCodes[*m.StreakSource] {
				return fmt.Errorf("mission %s: streak_source %q must be declared earlier in the catalog", m.Code, *m.StreakSource)
			}
		}
	}

	slugs := make(map[string]bool)
	for i := range c.Collectibles {
		col := &c.Collectibles[i]
		if col.Slug == "" || col.Name == "" {
			return fmt.Errorf("collectible %d: slug and name are required", i)
		}
		if slugs[col.Slug] {
			return fmt.Errorf("collectible %s: duplicate slug", col.Slug)
		}
		slugs[col.Slug] = true
		if !validKinds[col.Kind] {
			return fmt.Errorf("collectible %s: invalid kind %q", col.Slug, col.Kind)
		}
		switch col.Kind {
		case models.CollectibleKindLocation, models.CollectibleKindEvent:
			if col.Latitude == nil || col.Longitude == nil {
				return fmt.Errorf("collectible %s: %s kind requires latitude and longitude", col.Slug, col.Kind)
			}
		case models.CollectibleKindCode:
			if col.Code == nil || col.MerchantCode == nil {
				return fmt.Errorf("collectible %s: code kind requires code and merchant_code", col.Slug)
			}
		}
	}

	questSlugs := make(map[string]bool)
	for i := range c.Quests {
		q := &c.Quests[i]
		if q.Slug == "" {
			return fmt.Errorf("quest %d: slug is required", i)
		}
		if questSlugs[q.Slug] {
			return fmt.Errorf("quest %s: duplicate slug", q.Slug)
		}
		questSlugs[q.Slug] = true
		if len(q.Steps) == 0 {
			return fmt.Errorf("quest %s: at least one step is required", q.Slug)
		}
		for j, step := range q.Steps {
			if step.Order != j+1 {
				return fmt.Errorf("quest %s: step orders must be contiguous from 1, got %d at position %d", q.Slug, step.Order, j)
			}
			hasCollectible := step.CollectibleSlug != nil
			hasMerchant := step.MerchantCode != nil
			if hasCollectible == hasMerchant {
				return fmt.Errorf("quest %s step %d: exactly one of collectible or merchant is required", q.Slug, step.Order)
			}
			if hasCollectible && !slugs[*step.CollectibleSlug] {
				return fmt.Errorf("quest %s step %d: unknown collectible %q", q.Slug, step.Order, *step.CollectibleSlug)
			}
		}
	}

	if len(c.Missions) == 0 && len(c.Collectibles) == 0 && len(c.Quests) == 0 {
		return errors.New("catalog is empty")
	}
	return nil
}
