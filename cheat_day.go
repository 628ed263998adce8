package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// reservedCalories sums planned calories of the cheat days inside p,
// optionally ignoring one date (the one being replaced).
func reservedCalories(p weeklyPeriod, days []plannedCheatDay, except *time.Time) int {
	total := 0
	for _, cd := range days {
		d := dayOf(cd.CheatDate.Time)
		if !p.contains(d) {
			continue
		}
		if except != nil && d.Equal(dayOf(*except)) {
			continue
		}
		total += cd.PlannedCalories
	}
	return total
}

// checkReservation validates reserving planned calories on date inside p.
// Re-reserving a date replaces its previous amount, so that amount does not
// count against the budget. Returns the period's reserved total afterwards.
func checkReservation(p weeklyPeriod, days []plannedCheatDay, date time.Time, planned int, today time.Time) (int, error) {
	date = dayOf(date)
	if planned < 0 {
		return 0, fmt.Errorf("%w: planned_calories must be >= 0", ErrInvalidInput)
	}
	if date.Before(dayOf(today)) {
		return 0, fmt.Errorf("%w: cheat day must not be in the past", ErrInvalidInput)
	}
	if !p.contains(date) {
		return 0, fmt.Errorf("%w: cheat day outside weekly period", ErrInvalidInput)
	}
	others := reservedCalories(p, days, &date)
	if planned > p.WeeklyBudget-others {
		return 0, fmt.Errorf("%w: %d kcal requested, %d kcal available", ErrInsufficientBudget, planned, p.WeeklyBudget-others)
	}
	return others + planned, nil
}

// remainingNonReservedDays counts the days of p from today (or the period
// start, for a future period) through its end that carry no reservation.
func remainingNonReservedDays(p weeklyPeriod, days []plannedCheatDay, today time.Time) int {
	reserved := make(map[string]bool, len(days))
	for _, cd := range days {
		reserved[fmtDate(cd.CheatDate.Time)] = true
	}
	start := dayOf(p.WeekStartDate.Time)
	if t := dayOf(today); t.After(start) {
		start = t
	}
	n := 0
	for d := start; !d.After(dayOf(p.WeekEndDate.Time)); d = d.AddDate(0, 0, 1) {
		if !reserved[fmtDate(d)] {
			n++
		}
	}
	return n
}

// effectiveDailyAllowance splits what is left of the budget after
// reservations evenly over the remaining non-reserved days, to the cent.
func effectiveDailyAllowance(budget, reserved, remainingDays int) decimal.Decimal {
	if remainingDays <= 0 {
		return decimal.Zero
	}
	left := budget - reserved
	if left < 0 {
		left = 0
	}
	return decimal.NewFromInt(int64(left)).
		Div(decimal.NewFromInt(int64(remainingDays))).
		Round(2)
}

// cheatDaysIn filters days to those inside p.
func cheatDaysIn(p weeklyPeriod, days []plannedCheatDay) []plannedCheatDay {
	var out []plannedCheatDay
	for _, cd := range days {
		if p.contains(cd.CheatDate.Time) {
			out = append(out, cd)
		}
	}
	return out
}
