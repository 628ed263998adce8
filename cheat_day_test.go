package main

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

// testPeriod is the week of 2026-10-12 with a 13500 kcal budget.
func testPeriod() weeklyPeriod {
	return weeklyPeriod{
		ID:            uuid.New(),
		UserID:        7,
		WeekStartDate: DateOnly{day("2026-10-12")},
		WeekEndDate:   DateOnly{day("2026-10-18")},
		WeeklyBudget:  13500,
	}
}

func cheatDay(date string, kcal int) plannedCheatDay {
	return plannedCheatDay{UserID: 7, CheatDate: DateOnly{day(date)}, PlannedCalories: kcal}
}

// TestEffectiveDailyAllowance_Scenario: 13500 budget, 2800 reserved for
// Saturday, six non-reserved days ⇒ 1783.33 per day.
func TestEffectiveDailyAllowance_Scenario(t *testing.T) {
	p := testPeriod()
	days := []plannedCheatDay{cheatDay("2026-10-17", 2800)}

	total, err := checkReservation(p, nil, day("2026-10-17"), 2800, day("2026-10-12"))
	if err != nil {
		t.Fatalf("checkReservation: %v", err)
	}
	if total != 2800 {
		t.Errorf("reserved total = %d, want 2800", total)
	}

	remaining := remainingNonReservedDays(p, days, day("2026-10-12"))
	if remaining != 6 {
		t.Fatalf("remaining non-reserved days = %d, want 6", remaining)
	}
	got := effectiveDailyAllowance(p.WeeklyBudget, reservedCalories(p, days, nil), remaining)
	if got.String() != "1783.33" {
		t.Errorf("allowance = %s, want 1783.33", got.String())
	}
}

func TestCheckReservation_InsufficientBudget(t *testing.T) {
	p := testPeriod()
	days := []plannedCheatDay{cheatDay("2026-10-16", 10000)}

	_, err := checkReservation(p, days, day("2026-10-17"), 3501, day("2026-10-12"))
	if !errors.Is(err, ErrInsufficientBudget) {
		t.Fatalf("got %v, want ErrInsufficientBudget", err)
	}
	if _, err := checkReservation(p, days, day("2026-10-17"), 3500, day("2026-10-12")); err != nil {
		t.Errorf("reserving exactly the rest: %v", err)
	}
}

// TestCheckReservation_ReplacesSameDate: re-reserving a date only counts the
// difference against the budget.
func TestCheckReservation_ReplacesSameDate(t *testing.T) {
	p := testPeriod()
	days := []plannedCheatDay{cheatDay("2026-10-17", 13000)}

	total, err := checkReservation(p, days, day("2026-10-17"), 13500, day("2026-10-12"))
	if err != nil {
		t.Fatalf("replacement within budget: %v", err)
	}
	if total != 13500 {
		t.Errorf("reserved total after replacement = %d, want 13500", total)
	}
}

func TestCheckReservation_InvalidInput(t *testing.T) {
	p := testPeriod()
	cases := []struct {
		name    string
		date    string
		planned int
	}{
		{"negative calories", "2026-10-17", -1},
		{"in the past", "2026-10-13", 500},
		{"outside the period", "2026-10-20", 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := checkReservation(p, nil, day(tc.date), tc.planned, day("2026-10-14"))
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestReservedCalories_IgnoresOtherPeriods(t *testing.T) {
	p := testPeriod()
	days := []plannedCheatDay{
		cheatDay("2026-10-14", 500),
		cheatDay("2026-10-17", 800),
		cheatDay("2026-10-21", 9999),
	}
	if got := reservedCalories(p, days, nil); got != 1300 {
		t.Errorf("reserved = %d, want 1300", got)
	}
	except := day("2026-10-17")
	if got := reservedCalories(p, days, &except); got != 500 {
		t.Errorf("reserved except 10-17 = %d, want 500", got)
	}
	if got := len(cheatDaysIn(p, days)); got != 2 {
		t.Errorf("cheatDaysIn = %d days, want 2", got)
	}
}

func TestRemainingNonReservedDays(t *testing.T) {
	p := testPeriod()
	days := []plannedCheatDay{cheatDay("2026-10-17", 800)}

	if got := remainingNonReservedDays(p, days, day("2026-10-16")); got != 2 {
		t.Errorf("from Friday = %d, want 2 (Fri, Sun)", got)
	}
	// A future period counts from its own start.
	if got := remainingNonReservedDays(p, days, day("2026-10-01")); got != 6 {
		t.Errorf("before the period = %d, want 6", got)
	}
	if got := remainingNonReservedDays(p, nil, day("2026-10-19")); got != 0 {
		t.Errorf("after the period = %d, want 0", got)
	}
}

func TestEffectiveDailyAllowance_Edges(t *testing.T) {
	if got := effectiveDailyAllowance(13500, 0, 0); !got.IsZero() {
		t.Errorf("no remaining days: got %s, want 0", got)
	}
	if got := effectiveDailyAllowance(1000, 1500, 2); !got.IsZero() {
		t.Errorf("over-reserved: got %s, want 0", got)
	}
	if got := effectiveDailyAllowance(14000, 0, 7); got.String() != "2000" {
		t.Errorf("even split: got %s, want 2000", got)
	}
}
