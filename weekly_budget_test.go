package main

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

/* ─── Budget arithmetic ──────────────────────────────────────────────── */

// TestWeeklyBudget_LoseScenario: 2000 kcal/day with a −500/week adjustment.
func TestWeeklyBudget_LoseScenario(t *testing.T) {
	if got := weeklyBudget(2000, -500); got != 13500 {
		t.Errorf("weeklyBudget(2000, -500) = %d, want 13500", got)
	}
}

func TestWeeklyBudget_Rounds(t *testing.T) {
	// 1857.14 * 7 = 12999.98
	if got := weeklyBudget(1857.14, 0); got != 13000 {
		t.Errorf("weeklyBudget(1857.14, 0) = %d, want 13000", got)
	}
}

func TestWeeklyBudget_NeverNegative(t *testing.T) {
	cfg := defaultEngineConfig()
	for _, goal := range []string{"lose", "maintain", "gain"} {
		for _, avg := range []float64{0, 150, 800, 2000} {
			for _, rate := range []float64{0, 0.005, maxWeeklyGoalRate} {
				for _, bw := range []float64{0, 120, 400} {
					adj := goalAdjustment(goal, rate, bw, cfg)
					if b := weeklyBudget(avg, adj); b < 0 {
						t.Errorf("goal=%s avg=%v rate=%v bw=%v: budget %d < 0", goal, avg, rate, bw, b)
					}
				}
			}
		}
	}
	if got := weeklyBudget(300, -5000); got != 0 {
		t.Errorf("weeklyBudget(300, -5000) = %d, want 0", got)
	}
}

func TestGoalAdjustment(t *testing.T) {
	cfg := defaultEngineConfig()
	cases := []struct {
		goal string
		rate float64
		bw   float64
		want int
	}{
		{"lose", 0.005, 200, -3500},
		{"gain", 0.0025, 160, 1400},
		{"maintain", 0.005, 200, 0},
		{"lose", 0.005, 0, 0}, // no bodyweight known
		{"lose", 0, 200, 0},
	}
	for _, tc := range cases {
		if got := goalAdjustment(tc.goal, tc.rate, tc.bw, cfg); got != tc.want {
			t.Errorf("goalAdjustment(%s, %v, %v) = %d, want %d", tc.goal, tc.rate, tc.bw, got, tc.want)
		}
	}
}

func TestValidateGoalSettings(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(f float64) *float64 { return &f }

	if err := validateGoalSettings(nil, nil); err != nil {
		t.Errorf("nothing provided: %v", err)
	}
	if err := validateGoalSettings(str("lose"), num(0.01)); err != nil {
		t.Errorf("valid settings: %v", err)
	}
	if err := validateGoalSettings(str("bulk"), nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown goal: got %v, want ErrInvalidInput", err)
	}
	if err := validateGoalSettings(nil, num(0.02)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("rate over cap: got %v, want ErrInvalidInput", err)
	}
	if err := validateGoalSettings(nil, num(-0.001)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative rate: got %v, want ErrInvalidInput", err)
	}
}

/* ─── Calendar ───────────────────────────────────────────────────────── */

func TestMondayAfter(t *testing.T) {
	cases := map[string]string{
		"2026-10-16": "2026-10-19", // Friday
		"2026-10-12": "2026-10-19", // Monday: strictly after
		"2026-10-18": "2026-10-19", // Sunday
		"2026-12-30": "2027-01-04", // across a year
	}
	for in, want := range cases {
		if got := fmtDate(mondayAfter(day(in))); got != want {
			t.Errorf("mondayAfter(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestMondayOf(t *testing.T) {
	cases := map[string]string{
		"2026-10-16": "2026-10-12",
		"2026-10-18": "2026-10-12",
		"2026-10-19": "2026-10-19",
	}
	for in, want := range cases {
		if got := fmtDate(mondayOf(day(in))); got != want {
			t.Errorf("mondayOf(%s) = %s, want %s", in, got, want)
		}
	}
}

/* ─── Period planning ────────────────────────────────────────────────── */

func testInputs() budgetInputs {
	return budgetInputs{UserID: 7, AverageDaily: 2000, Goal: "lose", WeeklyGoalRate: 0.005, BodyweightLBS: 200}
}

func TestNewWeeklyPeriod(t *testing.T) {
	p := newWeeklyPeriod(day("2026-10-19"), testInputs(), defaultEngineConfig())
	if p.ID == uuid.Nil {
		t.Error("expected a generated period id")
	}
	if fmtDate(p.WeekEndDate.Time) != "2026-10-25" {
		t.Errorf("end = %s, want 2026-10-25", fmtDate(p.WeekEndDate.Time))
	}
	if p.GoalAdjustment != -3500 || p.WeeklyBudget != 10500 {
		t.Errorf("adjustment=%d budget=%d, want -3500/10500", p.GoalAdjustment, p.WeeklyBudget)
	}
	if p.UserID != 7 || p.BaselineAverageDaily != 2000 {
		t.Errorf("inputs not carried over: %+v", p)
	}
}

// TestPlanPeriods_SeedsFirstWeekAfterAnchor: completing on a Wednesday seeds
// the following Monday's week, even though it has not started yet.
func TestPlanPeriods_SeedsFirstWeekAfterAnchor(t *testing.T) {
	cfg := defaultEngineConfig()
	got := planPeriods(nil, day("2026-10-14"), day("2026-10-16"), testInputs(), cfg)
	if len(got) != 1 {
		t.Fatalf("planned %d periods, want 1", len(got))
	}
	if fmtDate(got[0].WeekStartDate.Time) != "2026-10-19" {
		t.Errorf("first period starts %s, want 2026-10-19", fmtDate(got[0].WeekStartDate.Time))
	}
}

func TestPlanPeriods_Contiguous(t *testing.T) {
	cfg := defaultEngineConfig()

	got := planPeriods(nil, day("2026-10-14"), day("2026-11-01"), testInputs(), cfg)
	if len(got) != 2 {
		t.Fatalf("planned %d periods through 2026-11-01, want 2", len(got))
	}

	latest := got[1]
	more := planPeriods(&latest, day("2026-10-14"), day("2026-11-10"), testInputs(), cfg)
	if len(more) != 2 {
		t.Fatalf("planned %d more periods, want 2", len(more))
	}
	all := append(got, more...)
	for i := 1; i < len(all); i++ {
		prevEnd := all[i-1].WeekEndDate.Time
		if gap := daysBetween(prevEnd, all[i].WeekStartDate.Time); gap != 1 {
			t.Errorf("period %d starts %d days after previous end, want 1", i, gap)
		}
	}
	if last := all[len(all)-1]; !last.contains(day("2026-11-10")) {
		t.Errorf("last period %s..%s does not cover through date",
			fmtDate(last.WeekStartDate.Time), fmtDate(last.WeekEndDate.Time))
	}
}

func TestBudgetAnchor(t *testing.T) {
	created := day("2026-09-01").Add(14 * time.Hour)
	ended := DateOnly{day("2026-10-14")}

	skipped := &profile{BaselineSkipped: true, CreatedAt: &created}
	if got, ok := budgetAnchor(skipped); !ok || fmtDate(got) != "2026-09-01" {
		t.Errorf("skipped anchor = %s/%v, want 2026-09-01", fmtDate(got), ok)
	}

	completed := &profile{BaselineComplete: true, BaselineEndDate: &ended, CreatedAt: &created}
	if got, ok := budgetAnchor(completed); !ok || fmtDate(got) != "2026-10-14" {
		t.Errorf("completed anchor = %s/%v, want 2026-10-14", fmtDate(got), ok)
	}

	rebaselining := &profile{BaselineStartDate: &ended, CreatedAt: &created}
	if _, ok := budgetAnchor(rebaselining); ok {
		t.Error("an open re-baseline should have no anchor")
	}
}

// TestPlanPeriods_SkippedFromCreation: skipping weeks after sign-up still
// opens every week since the Monday after the account was created.
func TestPlanPeriods_SkippedFromCreation(t *testing.T) {
	created := day("2026-09-01")
	p := &profile{BaselineSkipped: true, CreatedAt: &created}
	anchor, ok := budgetAnchor(p)
	if !ok {
		t.Fatal("skipped profile has no anchor")
	}

	got := planPeriods(nil, anchor, day("2026-10-14"), testInputs(), defaultEngineConfig())
	if len(got) != 6 {
		t.Fatalf("planned %d periods, want 6", len(got))
	}
	if fmtDate(got[0].WeekStartDate.Time) != "2026-09-07" {
		t.Errorf("first period starts %s, want 2026-09-07", fmtDate(got[0].WeekStartDate.Time))
	}
	if last := got[len(got)-1]; !last.contains(day("2026-10-14")) {
		t.Errorf("last period %s..%s does not cover the skip date",
			fmtDate(last.WeekStartDate.Time), fmtDate(last.WeekEndDate.Time))
	}
}

func TestPlanPeriods_NothingDue(t *testing.T) {
	cfg := defaultEngineConfig()
	latest := newWeeklyPeriod(day("2026-10-12"), testInputs(), cfg)
	if got := planPeriods(&latest, day("2026-10-01"), day("2026-10-16"), testInputs(), cfg); len(got) != 0 {
		t.Errorf("planned %d periods inside the latest week, want 0", len(got))
	}
}

func TestProvisionalPeriod(t *testing.T) {
	in := budgetInputs{AverageDaily: 2000, Goal: "maintain"}
	p := provisionalPeriod(day("2026-10-16"), in, defaultEngineConfig())
	if p.ID != uuid.Nil {
		t.Error("provisional period should not carry an id")
	}
	if fmtDate(p.WeekStartDate.Time) != "2026-10-12" || p.WeeklyBudget != 14000 {
		t.Errorf("start=%s budget=%d, want 2026-10-12/14000", fmtDate(p.WeekStartDate.Time), p.WeeklyBudget)
	}
}

// TestWeeklyBudget_ActivityOnlyViaFallback: with a measured baseline the
// budget does not move with activity level; without one the fallback does.
func TestWeeklyBudget_ActivityOnlyViaFallback(t *testing.T) {
	cfg := defaultEngineConfig()
	sedentary := makeProfile("male", 1990, 180, 180, "sedentary")
	active := makeProfile("male", 1990, 180, 180, "very_active")

	// budgetInputs carries no activity field; a measured average is used as-is.
	measured := newWeeklyPeriod(day("2026-10-19"), budgetInputs{AverageDaily: 2300, Goal: "maintain"}, cfg)
	if measured.WeeklyBudget != 16100 {
		t.Errorf("measured budget = %d, want 16100", measured.WeeklyBudget)
	}

	low := fallbackDailyEstimate(sedentary, testToday, cfg)
	high := fallbackDailyEstimate(active, testToday, cfg)
	if high <= low {
		t.Errorf("fallback estimate %d (very_active) should exceed %d (sedentary)", high, low)
	}
	lowBudget := newWeeklyPeriod(day("2026-10-19"), budgetInputs{AverageDaily: float64(low), Goal: "maintain"}, cfg)
	highBudget := newWeeklyPeriod(day("2026-10-19"), budgetInputs{AverageDaily: float64(high), Goal: "maintain"}, cfg)
	if highBudget.WeeklyBudget <= lowBudget.WeeklyBudget {
		t.Errorf("fallback budgets %d/%d should follow activity level", highBudget.WeeklyBudget, lowBudget.WeeklyBudget)
	}
}
