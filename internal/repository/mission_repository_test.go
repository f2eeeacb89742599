package repository

import (
	"testing"

	"github.com/panscim/desideri-club-engine/internal/models"
)

func TestMissionRepository_GetByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMissionRepository(db)

	createTestMission(t, db, "daily_checkin", models.CadenceDaily, 10)

	mission, err := repo.GetByCode(testCtx, "daily_checkin")
	if err != nil {
		t.Fatalf("GetByCode() failed: %v", err)
	}
	if mission.Reward != 10 {
		t.Errorf("Expected reward 10, got %d", mission.Reward)
	}

	if _, err := repo.GetByCode(testCtx, "missing"); err == nil {
		t.Error("Expected error for unknown mission code")
	}
}

func TestMissionRepository_GetByCode_Inactive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMissionRepository(db)

	mission := createTestMission(t, db, "retired", models.CadenceDaily, 10)
	db.Model(mission).Update("active", false)

	if _, err := repo.GetByCode(testCtx, "retired"); err == nil {
		t.Error("Expected error for inactive mission")
	}
}

func TestMissionRepository_GetSubmission(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMissionRepository(db)

	user := createTestUser(t, db, "alice", 0)
	mission := createTestMission(t, db, "daily_checkin", models.CadenceDaily, 10)

	// Absent is nil, not an error.
	sub, err := repo.GetSubmission(testCtx, user.ID, mission.ID, "2025-06-15")
	if err != nil {
		t.Fatalf("GetSubmission() failed: %v", err)
	}
	if sub != nil {
		t.Error("Expected nil submission before any claim")
	}

	created := &models.MissionSubmission{
		UserID:    user.ID,
		MissionID: mission.ID,
		PeriodKey: "2025-06-15",
		Status:    models.SubmissionStatusApproved,
	}
	if err := db.Create(created).Error; err != nil {
		t.Fatalf("Failed to create submission: %v", err)
	}

	sub, err = repo.GetSubmission(testCtx, user.ID, mission.ID, "2025-06-15")
	if err != nil {
		t.Fatalf("GetSubmission() failed: %v", err)
	}
	if sub == nil || sub.ID != created.ID {
		t.Error("Expected to find the created submission")
	}
}

func TestMissionRepository_HasApprovedSubmission(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMissionRepository(db)

	user := createTestUser(t, db, "alice", 0)
	mission := createTestMission(t, db, "welcome_bonus", models.CadenceOneOff, 50)

	has, err := repo.HasApprovedSubmission(testCtx, user.ID, mission.ID)
	if err != nil {
		t.Fatalf("HasApprovedSubmission() failed: %v", err)
	}
	if has {
		t.Error("Expected no approved submission yet")
	}

	db.Create(&models.MissionSubmission{
		UserID:    user.ID,
		MissionID: mission.ID,
		PeriodKey: "permanent",
		Status:    models.SubmissionStatusApproved,
	})

	has, err = repo.HasApprovedSubmission(testCtx, user.ID, mission.ID)
	if err != nil {
		t.Fatalf("HasApprovedSubmission() failed: %v", err)
	}
	if !has {
		t.Error("Expected approved submission to be found")
	}
}

func TestMissionRepository_CountApprovedInPeriods(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMissionRepository(db)

	user := createTestUser(t, db, "alice", 0)
	mission := createTestMission(t, db, "daily_checkin", models.CadenceDaily, 10)

	for _, key := range []string{"2025-06-16", "2025-06-17", "2025-06-18"} {
		db.Create(&models.MissionSubmission{
			UserID:    user.ID,
			MissionID: mission.ID,
			PeriodKey: key,
			Status:    models.SubmissionStatusApproved,
		})
	}
	// Pending rows do not count.
	db.Create(&models.MissionSubmission{
		UserID:    user.ID,
		MissionID: mission.ID,
		PeriodKey: "2025-06-19",
		Status:    models.SubmissionStatusPending,
	})

	week := []string{"2025-06-16", "2025-06-17", "2025-06-18", "2025-06-19", "2025-06-20", "2025-06-21", "2025-06-22"}
	count, err := repo.CountApprovedInPeriods(testCtx, user.ID, mission.ID, week)
	if err != nil {
		t.Fatalf("CountApprovedInPeriods() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 approved submissions in the window, got %d", count)
	}

	count, err = repo.CountApprovedInPeriods(testCtx, user.ID, mission.ID, nil)
	if err != nil {
		t.Fatalf("CountApprovedInPeriods() with empty keys failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 for empty key set, got %d", count)
	}
}
