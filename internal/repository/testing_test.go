package repository

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/panscim/desideri-club-engine/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// In-memory SQLite is per-connection; a single connection keeps every
	// goroutine on the same database and serializes writes.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(
		&models.User{},
		&models.Merchant{},
		&models.Collectible{},
		&models.UnlockRecord{},
		&models.MissionDefinition{},
		&models.MissionSubmission{},
		&models.TransactionLog{},
		&models.QuestSet{},
		&models.QuestStep{},
		&models.QuestStepCompletion{},
	)
	if err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return &DB{db}
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *DB, username string, balance int64) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Balance:  balance,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// createTestCollectible creates a location-bound test collectible.
func createTestCollectible(t *testing.T, db *DB, slug string) *models.Collectible {
	t.Helper()

	lat, lon, radius := 40.3515, 18.1690, 100.0
	collectible := &models.Collectible{
		Slug:      slug,
		Name:      "Collectible " + slug,
		Kind:      models.CollectibleKindLocation,
		Latitude:  &lat,
		Longitude: &lon,
		Radius:    &radius,
		Active:    true,
	}
	if err := db.Create(collectible).Error; err != nil {
		t.Fatalf("Failed to create test collectible: %v", err)
	}
	return collectible
}

// createTestMission creates a test mission definition.
func createTestMission(t *testing.T, db *DB, code, cadence string, reward int64) *models.MissionDefinition {
	t.Helper()

	mission := &models.MissionDefinition{
		Code:         code,
		Title:        "Mission " + code,
		Cadence:      cadence,
		Verification: models.VerificationButton,
		Reward:       reward,
		Active:       true,
	}
	if err := db.Create(mission).Error; err != nil {
		t.Fatalf("Failed to create test mission: %v", err)
	}
	return mission
}

var testCtx = context.Background()
