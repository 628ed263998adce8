package main

import (
	"context"
	"fmt"
	"time"
)

// syncUser brings one user's derived state up to today: it opens the weekly
// periods whose start has arrived, freezes the metrics of weeks that ended,
// and marks past treat days completed. Every per-user transaction calls it
// first, so no scheduler is needed; the sweep command calls it too.
// It must run while holding the user's lock.
func syncUser(ctx context.Context, q querier, userID int, today time.Time, cfg engineConfig) (*profile, error) {
	p, err := loadProfile(ctx, q, userID, true)
	if err != nil {
		return nil, err
	}
	if _, err := openDuePeriods(ctx, q, p, today, today, cfg); err != nil {
		return nil, err
	}

	ended, err := unfinalizedEndedPeriods(ctx, q, userID, today)
	if err != nil {
		return nil, err
	}
	for _, period := range ended {
		if _, err := refreshMetrics(ctx, q, period, today); err != nil {
			return nil, fmt.Errorf("finalize period %s: %w", period.ID, err)
		}
	}

	if err := completePastCheatDays(ctx, q, userID, today); err != nil {
		return nil, err
	}
	return p, nil
}

// budgetAnchor is the date the user's first period counts from: account
// creation when the baseline was skipped, else the day it was completed.
// During a re-baseline there is none and the existing periods carry on.
func budgetAnchor(p *profile) (time.Time, bool) {
	switch {
	case p.BaselineSkipped && p.CreatedAt != nil:
		return dayOf(*p.CreatedAt), true
	case p.BaselineEndDate != nil:
		return dayOf(p.BaselineEndDate.Time), true
	}
	return time.Time{}, false
}

// openDuePeriods creates the periods planPeriods asks for, each with a fresh
// metrics row. through is normally today; reserving a future treat day
// passes that day instead. Nothing opens until a baseline average exists.
func openDuePeriods(ctx context.Context, q querier, p *profile, through, today time.Time, cfg engineConfig) ([]weeklyPeriod, error) {
	if p.BaselineAverageDaily == nil {
		return nil, nil
	}
	latest, err := latestPeriod(ctx, q, p.UserID)
	if err != nil {
		return nil, err
	}
	anchor, hasAnchor := budgetAnchor(p)
	if latest == nil && !hasAnchor {
		return nil, nil
	}
	if latest != nil && !dayOf(latest.WeekEndDate.Time).Before(dayOf(through)) {
		return nil, nil
	}

	bodyweight, err := latestBodyweight(ctx, q, p)
	if err != nil {
		return nil, err
	}
	in := budgetInputs{
		UserID:         p.UserID,
		AverageDaily:   *p.BaselineAverageDaily,
		Goal:           p.Goal,
		WeeklyGoalRate: p.WeeklyGoalRate,
		BodyweightLBS:  bodyweight,
	}

	var opened []weeklyPeriod
	for _, planned := range planPeriods(latest, anchor, through, in, cfg) {
		created, err := insertPeriod(ctx, q, planned)
		if err != nil {
			return opened, err
		}
		if _, err := refreshMetrics(ctx, q, created, today); err != nil {
			return opened, err
		}
		opened = append(opened, created)
	}
	return opened, nil
}

// afterDayChanged runs the engine steps that follow a change to one date's
// entries: re-sum the summary, feed the streak on a not-logged → logged
// transition, and rescore the week containing the date.
func afterDayChanged(ctx context.Context, q querier, p *profile, date, today time.Time) (dailySummary, error) {
	before, after, err := recomputeDailySummary(ctx, q, p.UserID, date)
	if err != nil {
		return after, err
	}

	if !before.IsLogged && after.IsLogged {
		s := streakFromProfile(*p).recordLoggedDay(date)
		applyStreakToProfile(p, s)
		if err := saveEngineState(ctx, q, p); err != nil {
			return after, err
		}
	}

	period, err := periodContaining(ctx, q, p.UserID, date)
	if err != nil {
		return after, err
	}
	if period != nil {
		if _, err := refreshMetrics(ctx, q, *period, today); err != nil {
			return after, err
		}
	}
	return after, nil
}
