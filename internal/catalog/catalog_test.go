package catalog

import (
	"strings"
	"testing"

	"github.com/panscim/desideri-club-engine/internal/models"
)

const validCatalogYAML = `
missions:
  - code: daily_checkin
    title: Daily Check-in
    cadence: daily
    reward: 10
  - code: photo_mission
    title: Photo of the Week
    cadence: weekly
    verification: moderated
    reward: 30
  - code: checkin_streak
    title: Check-in Streak
    cadence: weekly
    verification: aggregate
    reward: 100
    streak_source: daily_checkin
    streak_threshold: 3
collectibles:
  - slug: piazza-duomo
    name: Piazza Duomo
    kind: location
    latitude: 40.3515
    longitude: 18.1690
    radius: 100
  - slug: bar-desideri
    name: Bar Desideri
    kind: code
    code: DESI01
    merchant_code: DESI01
quests:
  - slug: old-town-trail
    title: Old Town Trail
    steps:
      - order: 1
        collectible: piazza-duomo
      - order: 2
        merchant: DESI01
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(c.Missions) != 3 || len(c.Collectibles) != 2 || len(c.Quests) != 1 {
		t.Errorf("Unexpected catalog shape: %d missions, %d collectibles, %d quests",
			len(c.Missions), len(c.Collectibles), len(c.Quests))
	}
	// Verification defaults to button when omitted.
	if c.Missions[0].Verification != models.VerificationButton {
		t.Errorf("Expected default verification button, got %q", c.Missions[0].Verification)
	}
}

func TestParse_UnknownField(t *testing.T) {
	yaml := `
missions:
  - code: daily_checkin
    title: Daily Check-in
    cadence: daily
    reward: 10
    bonus: 5
`
	if _, err := Parse([]byte(yaml)); err == nil {
		t.Error("Expected unknown field to be rejected")
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse([]byte("missions: []\n")); err == nil {
		t.Error("Expected empty catalog to be rejected")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "duplicate mission code",
			yaml: `
missions:
  - code: daily_checkin
    title: A
    cadence: daily
  - code: daily_checkin
    title: B
    cadence: daily
`,
			wantErr: "duplicate code",
		},
		{
			name: "invalid cadence",
			yaml: `
missions:
  - code: daily_checkin
    title: A
    cadence: hourly
`,
			wantErr: "invalid cadence",
		},
		{
			name: "negative reward",
			yaml: `
missions:
  - code: daily_checkin
    title: A
    cadence: daily
    reward: -5
`,
			wantErr: "negative reward",
		},
		{
			name: "aggregate without streak config",
			yaml: `
missions:
  - code: checkin_streak
    title: Streak
    cadence: weekly
    verification: aggregate
    reward: 100
`,
			wantErr: "streak_source",
		},
		{
			name: "streak source declared later",
			yaml: `
missions:
  - code: checkin_streak
    title: Streak
    cadence: weekly
    verification: aggregate
    reward: 100
    streak_source: daily_checkin
    streak_threshold: 3
  - code: daily_checkin
    title: Daily
    cadence: daily
`,
			wantErr: "declared earlier",
		},
		{
			name: "location collectible without coordinates",
			yaml: `
collectibles:
  - slug: piazza-duomo
    name: Piazza Duomo
    kind: location
`,
			wantErr: "latitude",
		},
		{
			name: "code collectible without merchant",
			yaml: `
collectibles:
  - slug: bar-desideri
    name: Bar Desideri
    kind: code
    code: DESI01
`,
			wantErr: "merchant_code",
		},
		{
			name: "quest with gap in step order",
			yaml: `
collectibles:
  - slug: piazza-duomo
    name: Piazza Duomo
    kind: location
    latitude: 40.3515
    longitude: 18.1690
quests:
  - slug: trail
    title: Trail
    steps:
      - order: 1
        collectible: piazza-duomo
      - order: 3
        collectible: piazza-duomo
`,
			wantErr: "contiguous",
		},
		{
			name: "quest step with both references",
			yaml: `
collectibles:
  - slug: piazza-duomo
    name: Piazza Duomo
    kind: location
    latitude: 40.3515
    longitude: 18.1690
quests:
  - slug: trail
    title: Trail
    steps:
      - order: 1
        collectible: piazza-duomo
        merchant: DESI01
`,
			wantErr: "exactly one",
		},
		{
			name: "quest step referencing unknown collectible",
			yaml: `
quests:
  - slug: trail
    title: Trail
    steps:
      - order: 1
        collectible: nowhere
`,
			wantErr: "unknown collectible",
		},
		{
			name: "quest without steps",
			yaml: `
quests:
  - slug: trail
    title: Trail
    steps: []
`,
			wantErr: "at least one step",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
