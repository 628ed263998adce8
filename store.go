package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Storage for the engine. Every function takes a querier so it runs inside
// the caller's per-user transaction; none of them decides anything on its
// own, the pure engine functions do.

/* ─── Profiles ───────────────────────────────────────────────────────── */

// loadProfile reads the user's profile. With forUpdate the row stays locked
// until the transaction ends.
func loadProfile(ctx context.Context, q querier, userID int, forUpdate bool) (*profile, error) {
	sql := "SELECT * FROM profiles WHERE user_id = @userID"
	if forUpdate {
		sql += " FOR UPDATE"
	}
	p, err := queryOne[profile](q, ctx, sql, pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

// saveEngineState persists the baseline and streak columns of p.
func saveEngineState(ctx context.Context, q querier, p *profile) error {
	_, err := q.Exec(ctx,
		`UPDATE profiles SET
			baseline_start_date    = @startDate,
			baseline_end_date      = @endDate,
			baseline_days_target   = @daysTarget,
			baseline_extended      = @extended,
			baseline_complete      = @complete,
			baseline_skipped       = @skipped,
			baseline_average_daily = @averageDaily,
			baseline_logged_days   = @loggedDays,
			current_streak         = @currentStreak,
			longest_streak         = @longestStreak,
			last_activity_date     = @lastActivity,
			updated_at             = now()
		 WHERE user_id = @userID`,
		pgx.NamedArgs{
			"userID":        p.UserID,
			"startDate":     nullableDate(p.BaselineStartDate),
			"endDate":       nullableDate(p.BaselineEndDate),
			"daysTarget":    p.BaselineDaysTarget,
			"extended":      p.BaselineExtended,
			"complete":      p.BaselineComplete,
			"skipped":       p.BaselineSkipped,
			"averageDaily":  p.BaselineAverageDaily,
			"loggedDays":    p.BaselineLoggedDays,
			"currentStreak": p.CurrentStreak,
			"longestStreak": p.LongestStreak,
			"lastActivity":  nullableDate(p.LastActivityDate),
		})
	if err != nil {
		return fmt.Errorf("save engine state: %w", err)
	}
	return nil
}

// nullableDate formats a nullable date as a query argument.
func nullableDate(d *DateOnly) *string {
	if d == nil || d.Time.IsZero() {
		return nil
	}
	s := fmtDate(d.Time)
	return &s
}

// latestBodyweight is the most recent weight-log entry, falling back to the
// profile's weight_lbs. Zero when neither is known.
func latestBodyweight(ctx context.Context, q querier, p *profile) (float64, error) {
	w, err := queryOne[weightEntry](q, ctx,
		"SELECT * FROM weight_log WHERE user_id = @userID ORDER BY date DESC LIMIT 1",
		pgx.NamedArgs{"userID": p.UserID})
	switch {
	case err == nil:
		return w.WeightLBS, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return 0, fmt.Errorf("load bodyweight: %w", err)
	}
	if p.WeightLBS != nil {
		return *p.WeightLBS, nil
	}
	return 0, nil
}

/* ─── Meal log + daily summaries ─────────────────────────────────────── */

func entriesForDate(ctx context.Context, q querier, userID int, date time.Time) ([]mealLogEntry, error) {
	entries, err := queryMany[mealLogEntry](q, ctx,
		`SELECT * FROM meal_log_entries
		 WHERE user_id = @userID AND log_date = @date
		 ORDER BY created_at, id`,
		pgx.NamedArgs{"userID": userID, "date": fmtDate(date)})
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return entries, nil
}

func loadDailySummary(ctx context.Context, q querier, userID int, date time.Time) (dailySummary, error) {
	s, err := queryOne[dailySummary](q, ctx,
		"SELECT * FROM daily_summaries WHERE user_id = @userID AND date = @date",
		pgx.NamedArgs{"userID": userID, "date": fmtDate(date)})
	if errors.Is(err, pgx.ErrNoRows) {
		return dailySummary{UserID: userID, Date: DateOnly{dayOf(date)}}, nil
	}
	if err != nil {
		return s, fmt.Errorf("load daily summary: %w", err)
	}
	return s, nil
}

// recomputeDailySummary re-sums all of the date's entries and upserts the
// summary. It returns the summary before and after so callers can see an
// is_logged transition.
func recomputeDailySummary(ctx context.Context, q querier, userID int, date time.Time) (before, after dailySummary, err error) {
	before, err = loadDailySummary(ctx, q, userID, date)
	if err != nil {
		return before, after, err
	}
	entries, err := entriesForDate(ctx, q, userID, date)
	if err != nil {
		return before, after, err
	}
	s := aggregateDay(userID, date, entries)
	after, err = queryOne[dailySummary](q, ctx,
		`INSERT INTO daily_summaries (user_id, date, calories_consumed, protein_g, carbs_g, fat_g, entry_count, is_logged, updated_at)
		 VALUES (@userID, @date, @calories, @proteinG, @carbsG, @fatG, @entryCount, @isLogged, now())
		 ON CONFLICT (user_id, date) DO UPDATE SET
			calories_consumed = EXCLUDED.calories_consumed,
			protein_g         = EXCLUDED.protein_g,
			carbs_g           = EXCLUDED.carbs_g,
			fat_g             = EXCLUDED.fat_g,
			entry_count       = EXCLUDED.entry_count,
			is_logged         = EXCLUDED.is_logged,
			updated_at        = now()
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "date": fmtDate(date),
			"calories": s.CaloriesConsumed, "proteinG": s.ProteinG,
			"carbsG": s.CarbsG, "fatG": s.FatG,
			"entryCount": s.EntryCount, "isLogged": s.IsLogged,
		})
	if err != nil {
		return before, after, fmt.Errorf("upsert daily summary: %w", err)
	}
	return before, after, nil
}

func summariesInRange(ctx context.Context, q querier, userID int, start, end time.Time) ([]dailySummary, error) {
	summaries, err := queryMany[dailySummary](q, ctx,
		`SELECT * FROM daily_summaries
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": fmtDate(start), "end": fmtDate(end)})
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	return summaries, nil
}

/* ─── Weekly periods + metrics ───────────────────────────────────────── */

func latestPeriod(ctx context.Context, q querier, userID int) (*weeklyPeriod, error) {
	return optionalPeriod(ctx, q,
		"SELECT * FROM weekly_periods WHERE user_id = @userID ORDER BY week_start_date DESC LIMIT 1",
		pgx.NamedArgs{"userID": userID})
}

// currentOrNextPeriod returns the period containing today, else the first
// one starting after it (a seeded week that has not begun yet).
func currentOrNextPeriod(ctx context.Context, q querier, userID int, today time.Time) (*weeklyPeriod, error) {
	return optionalPeriod(ctx, q,
		`SELECT * FROM weekly_periods
		 WHERE user_id = @userID AND week_end_date >= @today
		 ORDER BY week_start_date ASC LIMIT 1`,
		pgx.NamedArgs{"userID": userID, "today": fmtDate(today)})
}

func periodContaining(ctx context.Context, q querier, userID int, date time.Time) (*weeklyPeriod, error) {
	return optionalPeriod(ctx, q,
		`SELECT * FROM weekly_periods
		 WHERE user_id = @userID AND week_start_date <= @date AND week_end_date >= @date`,
		pgx.NamedArgs{"userID": userID, "date": fmtDate(date)})
}

func optionalPeriod(ctx context.Context, q querier, sql string, args pgx.NamedArgs) (*weeklyPeriod, error) {
	p, err := queryOne[weeklyPeriod](q, ctx, sql, args)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load weekly period: %w", err)
	}
	return &p, nil
}

func recentPeriods(ctx context.Context, q querier, userID, limit int) ([]weeklyPeriod, error) {
	periods, err := queryMany[weeklyPeriod](q, ctx,
		`SELECT * FROM weekly_periods WHERE user_id = @userID
		 ORDER BY week_start_date DESC LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("load weekly periods: %w", err)
	}
	return periods, nil
}

// unfinalizedEndedPeriods are periods whose week is over but whose metrics
// have not been frozen yet.
func unfinalizedEndedPeriods(ctx context.Context, q querier, userID int, today time.Time) ([]weeklyPeriod, error) {
	periods, err := queryMany[weeklyPeriod](q, ctx,
		`SELECT wp.* FROM weekly_periods wp
		 LEFT JOIN weekly_metrics wm ON wm.weekly_period_id = wp.id
		 WHERE wp.user_id = @userID AND wp.week_end_date < @today
		   AND COALESCE(wm.is_final, false) = false
		 ORDER BY wp.week_start_date`,
		pgx.NamedArgs{"userID": userID, "today": fmtDate(today)})
	if err != nil {
		return nil, fmt.Errorf("load ended periods: %w", err)
	}
	return periods, nil
}

func insertPeriod(ctx context.Context, q querier, p weeklyPeriod) (weeklyPeriod, error) {
	created, err := queryOne[weeklyPeriod](q, ctx,
		`INSERT INTO weekly_periods (id, user_id, week_start_date, week_end_date, baseline_average_daily, goal_adjustment, weekly_budget)
		 VALUES (@id, @userID, @start, @end, @average, @adjustment, @budget)
		 RETURNING *`,
		pgx.NamedArgs{
			"id": p.ID.String(), "userID": p.UserID,
			"start": fmtDate(p.WeekStartDate.Time), "end": fmtDate(p.WeekEndDate.Time),
			"average": p.BaselineAverageDaily, "adjustment": p.GoalAdjustment,
			"budget": p.WeeklyBudget,
		})
	if err != nil {
		return created, fmt.Errorf("insert weekly period: %w", err)
	}
	return created, nil
}

// loadMetrics returns nil when the period has no metrics row yet.
func loadMetrics(ctx context.Context, q querier, periodID uuid.UUID) (*weeklyMetrics, error) {
	m, err := queryOne[weeklyMetrics](q, ctx,
		"SELECT * FROM weekly_metrics WHERE weekly_period_id = @id",
		pgx.NamedArgs{"id": periodID.String()})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load weekly metrics: %w", err)
	}
	return &m, nil
}

// refreshMetrics recomputes a period's metrics from source and stores them.
// A frozen row is never overwritten.
func refreshMetrics(ctx context.Context, q querier, p weeklyPeriod, today time.Time) (*weeklyMetrics, error) {
	start, end := p.WeekStartDate.Time, p.WeekEndDate.Time
	summaries, err := summariesInRange(ctx, q, p.UserID, start, end)
	if err != nil {
		return nil, err
	}
	cheatDays, err := cheatDaysInRange(ctx, q, p.UserID, start, end)
	if err != nil {
		return nil, err
	}
	m := computeWeeklyMetrics(p, summaries, cheatDays, today)

	stored, err := queryOne[weeklyMetrics](q, ctx,
		`INSERT INTO weekly_metrics (weekly_period_id, balance_score, consistency_score, drift_score,
			total_consumed, total_remaining, calories_reserved, days_elapsed, logged_days, is_final, updated_at)
		 VALUES (@id, @balance, @consistency, @drift, @consumed, @remaining, @reserved, @elapsed, @logged, @final, now())
		 ON CONFLICT (weekly_period_id) DO UPDATE SET
			balance_score     = EXCLUDED.balance_score,
			consistency_score = EXCLUDED.consistency_score,
			drift_score       = EXCLUDED.drift_score,
			total_consumed    = EXCLUDED.total_consumed,
			total_remaining   = EXCLUDED.total_remaining,
			calories_reserved = EXCLUDED.calories_reserved,
			days_elapsed      = EXCLUDED.days_elapsed,
			logged_days       = EXCLUDED.logged_days,
			is_final          = EXCLUDED.is_final,
			updated_at        = now()
		 WHERE weekly_metrics.is_final = false
		 RETURNING *`,
		pgx.NamedArgs{
			"id": p.ID.String(), "balance": m.BalanceScore,
			"consistency": m.ConsistencyScore, "drift": m.DriftScore,
			"consumed": m.TotalConsumed, "remaining": m.TotalRemaining,
			"reserved": m.CaloriesReserved, "elapsed": m.DaysElapsed,
			"logged": m.LoggedDays, "final": m.IsFinal,
		})
	if errors.Is(err, pgx.ErrNoRows) {
		// Already frozen; the conflict update was skipped.
		return loadMetrics(ctx, q, p.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert weekly metrics: %w", err)
	}
	return &stored, nil
}

/* ─── Cheat days ─────────────────────────────────────────────────────── */

func cheatDaysInRange(ctx context.Context, q querier, userID int, start, end time.Time) ([]plannedCheatDay, error) {
	days, err := queryMany[plannedCheatDay](q, ctx,
		`SELECT * FROM planned_cheat_days
		 WHERE user_id = @userID AND cheat_date >= @start AND cheat_date <= @end
		 ORDER BY cheat_date`,
		pgx.NamedArgs{"userID": userID, "start": fmtDate(start), "end": fmtDate(end)})
	if err != nil {
		return nil, fmt.Errorf("load cheat days: %w", err)
	}
	return days, nil
}

// upsertCheatDay stores the reservation; re-reserving a date replaces it.
func upsertCheatDay(ctx context.Context, q querier, userID int, periodID uuid.UUID, date time.Time, planned int) (plannedCheatDay, error) {
	cd, err := queryOne[plannedCheatDay](q, ctx,
		`INSERT INTO planned_cheat_days (user_id, weekly_period_id, cheat_date, planned_calories)
		 VALUES (@userID, @periodID, @date, @planned)
		 ON CONFLICT (user_id, cheat_date) DO UPDATE SET
			planned_calories = EXCLUDED.planned_calories,
			weekly_period_id = EXCLUDED.weekly_period_id
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "periodID": periodID.String(), "date": fmtDate(date), "planned": planned})
	if err != nil {
		return cd, fmt.Errorf("upsert cheat day: %w", err)
	}
	return cd, nil
}

func deleteCheatDay(ctx context.Context, q querier, userID int, date time.Time) error {
	tag, err := q.Exec(ctx,
		"DELETE FROM planned_cheat_days WHERE user_id = @userID AND cheat_date = @date",
		pgx.NamedArgs{"userID": userID, "date": fmtDate(date)})
	if err != nil {
		return fmt.Errorf("delete cheat day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func completePastCheatDays(ctx context.Context, q querier, userID int, today time.Time) error {
	_, err := q.Exec(ctx,
		`UPDATE planned_cheat_days SET is_completed = true
		 WHERE user_id = @userID AND cheat_date < @today AND is_completed = false`,
		pgx.NamedArgs{"userID": userID, "today": fmtDate(today)})
	if err != nil {
		return fmt.Errorf("complete cheat days: %w", err)
	}
	return nil
}

// latestStartedPeriod is the newest period whose week has begun by today.
func latestStartedPeriod(ctx context.Context, q querier, userID int, today time.Time) (*weeklyPeriod, error) {
	return optionalPeriod(ctx, q,
		`SELECT * FROM weekly_periods
		 WHERE user_id = @userID AND week_start_date <= @today
		 ORDER BY week_start_date DESC LIMIT 1`,
		pgx.NamedArgs{"userID": userID, "today": fmtDate(today)})
}

/* ─── Coach ──────────────────────────────────────────────────────────── */

func clientsOf(ctx context.Context, q querier, coachID int) ([]user, error) {
	clients, err := queryMany[user](q, ctx,
		"SELECT * FROM users WHERE coach_id = @coachID ORDER BY username",
		pgx.NamedArgs{"coachID": coachID})
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	return clients, nil
}
