package main

import "testing"

func TestComputeWeeklyMetrics_MidWeek(t *testing.T) {
	p := testPeriod()
	summaries := []dailySummary{
		logged("2026-10-12", 2000),
		logged("2026-10-13", 1800),
		logged("2026-10-14", 2200),
	}
	m := computeWeeklyMetrics(p, summaries, nil, day("2026-10-14"))

	if m.WeeklyPeriodID != p.ID {
		t.Error("metrics not keyed to the period")
	}
	if m.DaysElapsed != 3 || m.LoggedDays != 3 {
		t.Errorf("elapsed=%d logged=%d, want 3/3", m.DaysElapsed, m.LoggedDays)
	}
	if m.TotalConsumed != 6000 || m.TotalRemaining != 7500 {
		t.Errorf("consumed=%d remaining=%d, want 6000/7500", m.TotalConsumed, m.TotalRemaining)
	}
	// budget to date = 3/7 of 13500 ≈ 5785.71; off by 1/27
	if m.BalanceScore != 96.3 {
		t.Errorf("balance = %v, want 96.3", m.BalanceScore)
	}
	if m.ConsistencyScore == nil || *m.ConsistencyScore != 91.84 {
		t.Errorf("consistency = %v, want 91.84", m.ConsistencyScore)
	}
	if m.DriftScore == nil || *m.DriftScore != 100 {
		t.Errorf("drift = %v, want 100", m.DriftScore)
	}
	if m.IsFinal {
		t.Error("mid-week metrics should not be final")
	}
}

func TestComputeWeeklyMetrics_Drift(t *testing.T) {
	summaries := []dailySummary{
		logged("2026-10-12", 2000),
		logged("2026-10-13", 2000),
		logged("2026-10-14", 2000),
		logged("2026-10-15", 2500),
		logged("2026-10-16", 2500),
	}
	m := computeWeeklyMetrics(testPeriod(), summaries, nil, day("2026-10-16"))
	// period average 2200, trailing three 2333.33
	if m.DriftScore == nil || *m.DriftScore != 93.94 {
		t.Errorf("drift = %v, want 93.94", m.DriftScore)
	}
}

// TestComputeWeeklyMetrics_ReservedDay: a treat day's planned calories count
// toward the budget to date on its own date.
func TestComputeWeeklyMetrics_ReservedDay(t *testing.T) {
	summaries := []dailySummary{
		logged("2026-10-12", 1750),
		logged("2026-10-13", 1750),
		logged("2026-10-14", 3000),
	}
	days := []plannedCheatDay{cheatDay("2026-10-14", 3000)}
	m := computeWeeklyMetrics(testPeriod(), summaries, days, day("2026-10-14"))
	if m.CaloriesReserved != 3000 {
		t.Errorf("reserved = %d, want 3000", m.CaloriesReserved)
	}
	if m.BalanceScore != 100 {
		t.Errorf("balance = %v, want 100", m.BalanceScore)
	}
}

func TestComputeWeeklyMetrics_NotStarted(t *testing.T) {
	m := computeWeeklyMetrics(testPeriod(), nil, nil, day("2026-10-10"))
	if m.BalanceScore != 100 || m.TotalRemaining != 13500 || m.DaysElapsed != 0 {
		t.Errorf("unexpected metrics for a future week: %+v", m)
	}
	if m.ConsistencyScore != nil || m.DriftScore != nil {
		t.Error("consistency and drift should be null without logged days")
	}
}

func TestComputeWeeklyMetrics_FinalAfterWeekEnds(t *testing.T) {
	summaries := []dailySummary{logged("2026-10-12", 15000)}
	m := computeWeeklyMetrics(testPeriod(), summaries, nil, day("2026-10-19"))
	if !m.IsFinal || m.DaysElapsed != 7 {
		t.Errorf("final=%v elapsed=%d, want true/7", m.IsFinal, m.DaysElapsed)
	}
	if m.TotalRemaining != 0 {
		t.Errorf("remaining = %d, want 0 (never negative)", m.TotalRemaining)
	}
	if m.ConsistencyScore != nil {
		t.Error("consistency should be null with one logged day")
	}
	if m.DriftScore == nil || *m.DriftScore != 100 {
		t.Errorf("drift with one logged day = %v, want 100", m.DriftScore)
	}
}

func TestComputeWeeklyMetrics_UnloggedSummaryIgnored(t *testing.T) {
	summaries := []dailySummary{
		logged("2026-10-12", 2000),
		{Date: DateOnly{day("2026-10-13")}},
	}
	m := computeWeeklyMetrics(testPeriod(), summaries, nil, day("2026-10-13"))
	if m.LoggedDays != 1 || m.TotalConsumed != 2000 {
		t.Errorf("logged=%d consumed=%d, want 1/2000", m.LoggedDays, m.TotalConsumed)
	}
}

func TestScoresClamped(t *testing.T) {
	if got := balanceScore(50000, 2000); got != 0 {
		t.Errorf("balance far over budget = %v, want 0", got)
	}
	if got := balanceScore(0, 0); got != 100 {
		t.Errorf("balance with zero budget and intake = %v, want 100", got)
	}
	if got := balanceScore(10, 0); got != 0 {
		t.Errorf("balance with zero budget = %v, want 0", got)
	}
	if got := consistencyScore([]float64{0, 5000}); got == nil || *got != 0 {
		t.Errorf("wildly inconsistent = %v, want 0", got)
	}
	if got := consistencyScore([]float64{0, 0}); got == nil || *got != 100 {
		t.Errorf("all zero days = %v, want 100", got)
	}
	if got := driftScore(nil); got != nil {
		t.Errorf("drift without values = %v, want nil", *got)
	}
}
