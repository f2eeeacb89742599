package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/panscim/desideri-club-engine/internal/models"
)

func createTestTransaction(t *testing.T, db *DB, userID, merchantID uint, at time.Time) *models.TransactionLog {
	t.Helper()

	entry := &models.TransactionLog{
		ID:              uuid.NewString(),
		UserID:          userID,
		MerchantID:      merchantID,
		BaseAmount:      100,
		Multiplier:      1.0,
		EffectiveAmount: 100,
		CreatedAt:       at,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("Failed to create transaction entry: %v", err)
	}
	return entry
}

func TestTransactionRepository_LatestForPair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	user := createTestUser(t, db, "alice", 0)
	merchant := &models.Merchant{Name: "Bar", Code: "DESI01", Balance: 1000, RewardAmount: 100, Active: true}
	if err := db.Create(merchant).Error; err != nil {
		t.Fatalf("Failed to create merchant: %v", err)
	}

	base := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		entry, err := repo.LatestForPair(tx, user.ID, merchant.ID)
		if err != nil {
			return err
		}
		if entry != nil {
			t.Error("Expected nil before any redemption")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("LatestForPair() failed: %v", err)
	}

	createTestTransaction(t, db, user.ID, merchant.ID, base)
	newest := createTestTransaction(t, db, user.ID, merchant.ID, base.Add(26*time.Hour))

	err = db.Transaction(func(tx *gorm.DB) error {
		entry, err := repo.LatestForPair(tx, user.ID, merchant.ID)
		if err != nil {
			return err
		}
		if entry == nil || entry.ID != newest.ID {
			t.Error("Expected the newest entry for the pair")
		}

		// Another user's history does not bleed in.
		other, err := repo.LatestForPair(tx, user.ID+1, merchant.ID)
		if err != nil {
			return err
		}
		if other != nil {
			t.Error("Expected nil for a user with no redemptions")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("LatestForPair() failed: %v", err)
	}
}

func TestTransactionRepository_ListByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	user := createTestUser(t, db, "alice", 0)
	merchant := &models.Merchant{Name: "Bar", Code: "DESI01", Balance: 1000, RewardAmount: 100, Active: true}
	if err := db.Create(merchant).Error; err != nil {
		t.Fatalf("Failed to create merchant: %v", err)
	}

	base := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		createTestTransaction(t, db, user.ID, merchant.ID, base.Add(time.Duration(i)*26*time.Hour))
	}

	entries, err := repo.ListByUser(testCtx, user.ID, 0)
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if !entries[0].CreatedAt.After(entries[2].CreatedAt) {
		t.Error("Expected newest-first ordering")
	}
	if entries[0].Merchant.Code != "DESI01" {
		t.Error("Expected merchant to be preloaded")
	}

	limited, err := repo.ListByUser(testCtx, user.ID, 2)
	if err != nil {
		t.Fatalf("ListByUser() with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected limit to cap the result at 2, got %d", len(limited))
	}
}
