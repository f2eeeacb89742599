// Package clock computes mission eligibility periods against a fixed civil
// time zone. All functions are pure; the zone comes in as an argument so the
// calculator stays testable and free of ambient globals.
package clock

import (
	"fmt"
	"time"

	"github.com/panscim/desideri-club-engine/internal/models"
)

// OneOffKey is the sentinel period key for missions without a cadence.
const OneOffKey = "permanent"

// PeriodKey converts an instant into the canonical period identifier for a
// cadence, plus the instant the period resets (nil for one-off).
//
// Boundaries are civil-calendar boundaries in loc: a claim at 23:50 and one
// at 00:10 local fall into different daily keys at local midnight, not UTC
// midnight. Arithmetic uses calendar fields, never elapsed seconds, so DST
// transitions cannot shift a boundary.
func PeriodKey(cadence string, at time.Time, loc *time.Location) (string, *time.Time, error) {
	local := at.In(loc)

	switch cadence {
	case models.CadenceDaily:
		key := local.Format("2006-01-02")
		reset := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
		return key, &reset, nil

	case models.CadenceWeekly:
		year, week := local.ISOWeek()
		key := fmt.Sprintf("%d-W%02d", year, week)
		reset := nextMonday(local, loc)
		return key, &reset, nil

	case models.CadenceMonthly:
		key := local.Format("2006-01")
		reset := time.Date(local.Year(), local.Month()+1, 1, 0, 0, 0, 0, loc)
		return key, &reset, nil

	case models.CadenceOneOff, "special":
		return OneOffKey, nil, nil

	default:
		return "", nil, fmt.Errorf("unknown cadence %q", cadence)
	}
}

// WeekWindow returns the local ISO week bounds containing at: the Monday
// midnight starting the week and the Monday midnight ending it.
func WeekWindow(at time.Time, loc *time.Location) (start, end time.Time) {
	local := at.In(loc)
	// Monday-start: shift back (weekday-1) days, with Sunday counting as 6.
	back := (int(local.Weekday()) + 6) % 7
	start = time.Date(local.Year(), local.Month(), local.Day()-back, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 7)
	return start, end
}

// DailyKeysIn enumerates the daily period keys of the half-open window
// [start, end) in loc. Bounded by the window size (seven for a week).
func DailyKeysIn(start, end time.Time, loc *time.Location) []string {
	var keys []string
	day := start.In(loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	for day.Before(end) {
		keys = append(keys, day.Format("2006-01-02"))
		day = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
	}
	return keys
}

func nextMonday(local time.Time, loc *time.Location) time.Time {
	days := (8 - int(local.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return time.Date(local.Year(), local.Month(), local.Day()+days, 0, 0, 0, 0, loc)
}
