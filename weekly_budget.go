package main

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// goalSigns maps a goal to the direction of its weekly adjustment. This is
// the single source of truth for valid goals, also used for input
// validation in patchProfile.
var goalSigns = map[string]int{
	"lose":     -1,
	"maintain": 0,
	"gain":     1,
}

// maxWeeklyGoalRate caps weekly_goal_rate at 1.5% of bodyweight per week.
const maxWeeklyGoalRate = 0.015

// goalAdjustment converts a goal and a fraction-of-bodyweight-per-week rate
// into a signed weekly calorie delta. Without a known bodyweight there is
// nothing to scale by, so the delta is zero. Activity level is not an input:
// the baseline average already reflects how active the user is, and
// activity only shapes the TDEE fallback used when there is no baseline.
func goalAdjustment(goal string, weeklyGoalRate, bodyweightLBS float64, cfg engineConfig) int {
	sign := goalSigns[goal]
	if sign == 0 || weeklyGoalRate <= 0 || bodyweightLBS <= 0 {
		return 0
	}
	return sign * int(math.Round(bodyweightLBS*weeklyGoalRate*cfg.KcalPerLb))
}

// weeklyBudget is the rounded weekly allowance, never negative.
func weeklyBudget(averageDaily float64, adjustment int) int {
	b := int(math.Round(averageDaily*7 + float64(adjustment)))
	if b < 0 {
		return 0
	}
	return b
}

// mondayAfter returns the first Monday strictly after d.
func mondayAfter(d time.Time) time.Time {
	d = dayOf(d)
	offset := (8 - int(d.Weekday())) % 7 // Sunday=0 → 1, Monday=1 → 0
	if offset == 0 {
		offset = 7
	}
	return d.AddDate(0, 0, offset)
}

// mondayOf returns the Monday starting d's Mon–Sun week.
func mondayOf(d time.Time) time.Time {
	d = dayOf(d)
	weekday := int(d.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7
	}
	return d.AddDate(0, 0, -(weekday - 1))
}

// budgetInputs is everything a new period needs besides its dates.
type budgetInputs struct {
	UserID         int
	AverageDaily   float64
	Goal           string
	WeeklyGoalRate float64
	BodyweightLBS  float64
}

func newWeeklyPeriod(start time.Time, in budgetInputs, cfg engineConfig) weeklyPeriod {
	start = dayOf(start)
	adj := goalAdjustment(in.Goal, in.WeeklyGoalRate, in.BodyweightLBS, cfg)
	return weeklyPeriod{
		ID:                   uuid.New(),
		UserID:               in.UserID,
		WeekStartDate:        DateOnly{start},
		WeekEndDate:          DateOnly{start.AddDate(0, 0, 6)},
		BaselineAverageDaily: in.AverageDaily,
		GoalAdjustment:       adj,
		WeeklyBudget:         weeklyBudget(in.AverageDaily, adj),
	}
}

// planPeriods returns the periods to open so that the user's weeks run
// contiguously up to and including the week containing through.
//
// Without an existing period the first one starts the Monday after anchor
// (baseline completion or account creation) and is always returned, even
// when it lies in the future: that is the seeding of the first week.
// With an existing period, new ones continue from its end, so there are no
// gaps and no overlaps.
func planPeriods(latest *weeklyPeriod, anchor, through time.Time, in budgetInputs, cfg engineConfig) []weeklyPeriod {
	through = dayOf(through)

	var out []weeklyPeriod
	var next time.Time
	if latest == nil {
		first := newWeeklyPeriod(mondayAfter(anchor), in, cfg)
		out = append(out, first)
		next = first.WeekStartDate.Time.AddDate(0, 0, 7)
	} else {
		next = dayOf(latest.WeekEndDate.Time).AddDate(0, 0, 1)
	}

	for !next.After(through) {
		out = append(out, newWeeklyPeriod(next, in, cfg))
		next = next.AddDate(0, 0, 7)
	}
	return out
}

// provisionalPeriod is the unsaved period returned when there is no baseline
// to derive from: the current Mon–Sun week at the fallback daily estimate.
func provisionalPeriod(today time.Time, in budgetInputs, cfg engineConfig) weeklyPeriod {
	p := newWeeklyPeriod(mondayOf(today), in, cfg)
	p.ID = uuid.Nil
	return p
}

// validateGoalSettings checks goal and rate before they are persisted.
func validateGoalSettings(goal *string, rate *float64) error {
	if goal != nil {
		if _, ok := goalSigns[*goal]; !ok {
			return fmt.Errorf("%w: goal must be one of: lose, maintain, gain", ErrInvalidInput)
		}
	}
	if rate != nil && (*rate < 0 || *rate > maxWeeklyGoalRate) {
		return fmt.Errorf("%w: weekly_goal_rate must be between 0 and %.3f", ErrInvalidInput, maxWeeklyGoalRate)
	}
	return nil
}
