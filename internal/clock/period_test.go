package clock

import (
	"testing"
	"time"

	"github.com/panscim/desideri-club-engine/internal/models"
)

func rome(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatalf("Failed to load location: %v", err)
	}
	return loc
}

func TestPeriodKey_Daily(t *testing.T) {
	loc := rome(t)

	morning := time.Date(2025, 6, 15, 8, 30, 0, 0, loc)
	evening := time.Date(2025, 6, 15, 23, 50, 0, 0, loc)

	key1, reset1, err := PeriodKey(models.CadenceDaily, morning, loc)
	if err != nil {
		t.Fatalf("PeriodKey() failed: %v", err)
	}
	key2, _, err := PeriodKey(models.CadenceDaily, evening, loc)
	if err != nil {
		t.Fatalf("PeriodKey() failed: %v", err)
	}

	if key1 != "2025-06-15" {
		t.Errorf("Expected key '2025-06-15', got %q", key1)
	}
	if key1 != key2 {
		t.Errorf("Expected same key within one civil day, got %q and %q", key1, key2)
	}

	wantReset := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)
	if reset1 == nil || !reset1.Equal(wantReset) {
		t.Errorf("Expected reset %v, got %v", wantReset, reset1)
	}
}

func TestPeriodKey_DailyBoundaryIsLocalMidnight(t *testing.T) {
	loc := rome(t)

	// 23:50 local and 00:10 local the next day are both inside the same
	// UTC day in summer, but must produce different daily keys.
	before := time.Date(2025, 6, 15, 23, 50, 0, 0, loc)
	after := time.Date(2025, 6, 16, 0, 10, 0, 0, loc)

	key1, _, _ := PeriodKey(models.CadenceDaily, before, loc)
	key2, _, _ := PeriodKey(models.CadenceDaily, after, loc)

	if key1 == key2 {
		t.Errorf("Expected different keys across local midnight, got %q twice", key1)
	}

	// The same instants viewed from UTC must not change the answer.
	key1utc, _, _ := PeriodKey(models.CadenceDaily, before.UTC(), loc)
	if key1utc != key1 {
		t.Errorf("Expected key independent of input zone, got %q vs %q", key1utc, key1)
	}
}

func TestPeriodKey_DailyAcrossDSTTransition(t *testing.T) {
	loc := rome(t)

	// 2025-03-30 is the spring-forward day in Europe/Rome (02:00 -> 03:00).
	early := time.Date(2025, 3, 30, 1, 30, 0, 0, loc)
	late := time.Date(2025, 3, 30, 22, 0, 0, 0, loc)

	key1, reset1, _ := PeriodKey(models.CadenceDaily, early, loc)
	key2, _, _ := PeriodKey(models.CadenceDaily, late, loc)

	if key1 != "2025-03-30" || key2 != "2025-03-30" {
		t.Errorf("Expected both keys '2025-03-30', got %q and %q", key1, key2)
	}

	// Reset is the next civil midnight even though the day is 23h long.
	wantReset := time.Date(2025, 3, 31, 0, 0, 0, 0, loc)
	if reset1 == nil || !reset1.Equal(wantReset) {
		t.Errorf("Expected reset %v, got %v", wantReset, reset1)
	}

	next, _, _ := PeriodKey(models.CadenceDaily, wantReset, loc)
	if next != "2025-03-31" {
		t.Errorf("Expected key '2025-03-31' at the reset instant, got %q", next)
	}
}

func TestPeriodKey_Weekly(t *testing.T) {
	loc := rome(t)

	// 2025-12-29 is a Monday belonging to ISO week 2026-W01.
	at := time.Date(2025, 12, 29, 12, 0, 0, 0, loc)
	key, reset, err := PeriodKey(models.CadenceWeekly, at, loc)
	if err != nil {
		t.Fatalf("PeriodKey() failed: %v", err)
	}

	if key != "2026-W01" {
		t.Errorf("Expected key '2026-W01', got %q", key)
	}

	wantReset := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	if reset == nil || !reset.Equal(wantReset) {
		t.Errorf("Expected reset %v, got %v", wantReset, reset)
	}

	// Sunday still belongs to the Monday-started week.
	sunday := time.Date(2026, 1, 4, 23, 59, 0, 0, loc)
	keySunday, _, _ := PeriodKey(models.CadenceWeekly, sunday, loc)
	if keySunday != "2026-W01" {
		t.Errorf("Expected Sunday in week '2026-W01', got %q", keySunday)
	}
}

func TestPeriodKey_Monthly(t *testing.T) {
	loc := rome(t)

	at := time.Date(2025, 1, 31, 18, 0, 0, 0, loc)
	key, reset, err := PeriodKey(models.CadenceMonthly, at, loc)
	if err != nil {
		t.Fatalf("PeriodKey() failed: %v", err)
	}

	if key != "2025-01" {
		t.Errorf("Expected key '2025-01', got %q", key)
	}
	wantReset := time.Date(2025, 2, 1, 0, 0, 0, 0, loc)
	if reset == nil || !reset.Equal(wantReset) {
		t.Errorf("Expected reset %v, got %v", wantReset, reset)
	}

	// December rolls over to January of the next year.
	dec := time.Date(2025, 12, 10, 9, 0, 0, 0, loc)
	_, resetDec, _ := PeriodKey(models.CadenceMonthly, dec, loc)
	wantJan := time.Date(2026, 1, 1, 0, 0, 0, 0, loc)
	if resetDec == nil || !resetDec.Equal(wantJan) {
		t.Errorf("Expected reset %v, got %v", wantJan, resetDec)
	}
}

func TestPeriodKey_OneOff(t *testing.T) {
	loc := rome(t)

	key, reset, err := PeriodKey(models.CadenceOneOff, time.Now(), loc)
	if err != nil {
		t.Fatalf("PeriodKey() failed: %v", err)
	}
	if key != OneOffKey {
		t.Errorf("Expected key %q, got %q", OneOffKey, key)
	}
	if reset != nil {
		t.Errorf("Expected nil reset for one-off, got %v", reset)
	}
}

func TestPeriodKey_UnknownCadence(t *testing.T) {
	loc := rome(t)

	_, _, err := PeriodKey("hourly", time.Now(), loc)
	if err == nil {
		t.Error("Expected error for unknown cadence")
	}
}

func TestWeekWindow(t *testing.T) {
	loc := rome(t)

	// Wednesday 2025-06-18.
	at := time.Date(2025, 6, 18, 14, 0, 0, 0, loc)
	start, end := WeekWindow(at, loc)

	wantStart := time.Date(2025, 6, 16, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2025, 6, 23, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Errorf("Expected window start %v, got %v", wantStart, start)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("Expected window end %v, got %v", wantEnd, end)
	}

	// Sunday maps to the same window.
	sunday := time.Date(2025, 6, 22, 10, 0, 0, 0, loc)
	startSun, _ := WeekWindow(sunday, loc)
	if !startSun.Equal(wantStart) {
		t.Errorf("Expected Sunday window start %v, got %v", wantStart, startSun)
	}
}

func TestDailyKeysIn(t *testing.T) {
	loc := rome(t)

	start, end := WeekWindow(time.Date(2025, 6, 18, 14, 0, 0, 0, loc), loc)
	keys := DailyKeysIn(start, end, loc)

	if len(keys) != 7 {
		t.Fatalf("Expected 7 daily keys in a week, got %d: %v", len(keys), keys)
	}
	if keys[0] != "2025-06-16" {
		t.Errorf("Expected first key '2025-06-16', got %q", keys[0])
	}
	if keys[6] != "2025-06-22" {
		t.Errorf("Expected last key '2025-06-22', got %q", keys[6])
	}
}

func TestDailyKeysIn_DSTWeek(t *testing.T) {
	loc := rome(t)

	// Week containing the 2025-03-30 spring-forward Sunday.
	start, end := WeekWindow(time.Date(2025, 3, 26, 9, 0, 0, 0, loc), loc)
	keys := DailyKeysIn(start, end, loc)

	if len(keys) != 7 {
		t.Fatalf("Expected 7 daily keys despite the 23h day, got %d: %v", len(keys), keys)
	}
	if keys[6] != "2025-03-30" {
		t.Errorf("Expected last key '2025-03-30', got %q", keys[6])
	}
}
