package main

import (
	"math"
	"sort"
	"time"
)

// trailingDays is the window the drift score compares against the period.
const trailingDays = 3

// computeWeeklyMetrics scores a period over the days elapsed so far (start
// through today, capped at the period end). It only reads its inputs, so a
// retry after a failed write recomputes the same row.
func computeWeeklyMetrics(p weeklyPeriod, summaries []dailySummary, cheatDays []plannedCheatDay, today time.Time) weeklyMetrics {
	start, end := dayOf(p.WeekStartDate.Time), dayOf(p.WeekEndDate.Time)
	today = dayOf(today)

	m := weeklyMetrics{
		WeeklyPeriodID:   p.ID,
		CaloriesReserved: reservedCalories(p, cheatDays, nil),
		IsFinal:          today.After(end),
	}

	last := end
	if today.Before(end) {
		last = today
	}
	if last.Before(start) {
		m.BalanceScore = 100
		m.TotalRemaining = p.WeeklyBudget
		return m
	}
	m.DaysElapsed = daysBetween(start, last) + 1

	// Per-day allowance: reserved dates get their planned calories, the
	// other days of the week share the rest evenly.
	planned := make(map[string]int)
	for _, cd := range cheatDaysIn(p, cheatDays) {
		planned[fmtDate(cd.CheatDate.Time)] = cd.PlannedCalories
	}
	var baseDaily float64
	if free := 7 - len(planned); free > 0 {
		baseDaily = float64(p.WeeklyBudget-m.CaloriesReserved) / float64(free)
	}

	byDate := summariesByDate(summaries)
	var budgetToDate float64
	var logged []dailySummary
	for d := start; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := fmtDate(d)
		if kcal, ok := planned[key]; ok {
			budgetToDate += float64(kcal)
		} else {
			budgetToDate += baseDaily
		}
		if s, ok := byDate[key]; ok {
			m.TotalConsumed += s.CaloriesConsumed
			if s.IsLogged {
				logged = append(logged, s)
			}
		}
	}
	m.LoggedDays = len(logged)
	m.TotalRemaining = max(0, p.WeeklyBudget-m.TotalConsumed)
	m.BalanceScore = balanceScore(float64(m.TotalConsumed), budgetToDate)

	sort.Slice(logged, func(i, j int) bool { return logged[i].Date.Time.Before(logged[j].Date.Time) })
	values := make([]float64, len(logged))
	for i, s := range logged {
		values[i] = float64(s.CaloriesConsumed)
	}
	m.ConsistencyScore = consistencyScore(values)
	m.DriftScore = driftScore(values)
	return m
}

// balanceScore measures how close consumption is to the prorated budget.
func balanceScore(consumed, budgetToDate float64) float64 {
	if budgetToDate <= 0 {
		if consumed == 0 {
			return 100
		}
		return 0
	}
	return toScore(1 - math.Abs(consumed-budgetToDate)/budgetToDate)
}

// consistencyScore is one minus the coefficient of variation of daily
// intake. Undefined with fewer than two logged days.
func consistencyScore(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	mu := mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - mu) * (v - mu)
	}
	sigma := math.Sqrt(variance / float64(len(values)))
	if mu == 0 {
		return scorePtr(1) // every logged day was zero kcal
	}
	return scorePtr(1 - sigma/mu)
}

// driftScore compares the last few logged days with the period's own
// average, so it tracks short-term deviation rather than budget adherence.
func driftScore(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	periodAvg := mean(values)
	trailing := mean(values[max(0, len(values)-trailingDays):])
	if periodAvg == 0 {
		if trailing == 0 {
			return scorePtr(1)
		}
		return scorePtr(0)
	}
	return scorePtr(1 - math.Abs(trailing-periodAvg)/periodAvg)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// toScore clamps a 0..1 ratio and scales it to 0..100 with two decimals.
func toScore(ratio float64) float64 {
	ratio = math.Max(0, math.Min(1, ratio))
	return math.Round(ratio*10000) / 100
}

func scorePtr(ratio float64) *float64 {
	s := toScore(ratio)
	return &s
}
