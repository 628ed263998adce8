package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// dateLayout is the wire and query format for calendar dates.
const dateLayout = "2006-01-02"

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = dayOf(v.Time)
	return nil
}

/* ─── Calendar helpers ───────────────────────────────────────────────── */

// dayOf truncates t to midnight UTC of its calendar date. Every date the
// engine compares goes through here so day arithmetic is exact.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns b − a in whole calendar days.
func daysBetween(a, b time.Time) int {
	return int(dayOf(b).Sub(dayOf(a)).Hours() / 24)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

// datePtr converts a nullable DateOnly into a nullable time.
func datePtr(d *DateOnly) *time.Time {
	if d == nil || d.Time.IsZero() {
		return nil
	}
	t := dayOf(d.Time)
	return &t
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CoachID   *int       `json:"coach_id" db:"coach_id"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// mealLogEntry maps to meal_log_entries. Entries are only changed through
// explicit edit/delete; every change re-sums the day's summary.
type mealLogEntry struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	LogDate   DateOnly   `json:"log_date" db:"log_date"`
	MealType  string     `json:"meal_type" db:"meal_type"`
	ItemName  string     `json:"item_name" db:"item_name"`
	Calories  int        `json:"calories" db:"calories"`
	ProteinG  float64    `json:"protein_g" db:"protein_g"`
	CarbsG    float64    `json:"carbs_g" db:"carbs_g"`
	FatG      float64    `json:"fat_g" db:"fat_g"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// dailySummary maps to daily_summaries, one row per (user_id, date). Derived
// only; see aggregateDay.
type dailySummary struct {
	UserID           int        `json:"user_id" db:"user_id"`
	Date             DateOnly   `json:"date" db:"date"`
	CaloriesConsumed int        `json:"calories_consumed" db:"calories_consumed"`
	ProteinG         float64    `json:"protein_g" db:"protein_g"`
	CarbsG           float64    `json:"carbs_g" db:"carbs_g"`
	FatG             float64    `json:"fat_g" db:"fat_g"`
	EntryCount       int        `json:"entry_count" db:"entry_count"`
	IsLogged         bool       `json:"is_logged" db:"is_logged"`
	UpdatedAt        *time.Time `json:"updated_at" db:"updated_at"`
}

// profile maps to profiles. One row per user with goal settings, body fields
// for the fallback TDEE estimate, baseline state, and streak state.
type profile struct {
	UserID         int       `json:"user_id"          db:"user_id"`
	Goal           string    `json:"goal"             db:"goal"`
	WeeklyGoalRate float64   `json:"weekly_goal_rate" db:"weekly_goal_rate"`
	ActivityLevel  *string   `json:"activity_level"   db:"activity_level"`
	Sex            *string   `json:"sex"              db:"sex"`
	DateOfBirth    *DateOnly `json:"date_of_birth"    db:"date_of_birth"`
	HeightCM       *float64  `json:"height_cm"        db:"height_cm"`
	WeightLBS      *float64  `json:"weight_lbs"       db:"weight_lbs"`

	// Baseline window. baselineFromProfile turns these into a baselineWindow.
	BaselineStartDate    *DateOnly `json:"baseline_start_date"    db:"baseline_start_date"`
	BaselineEndDate      *DateOnly `json:"baseline_end_date"      db:"baseline_end_date"`
	BaselineDaysTarget   int       `json:"baseline_days_target"   db:"baseline_days_target"`
	BaselineExtended     bool      `json:"baseline_extended"      db:"baseline_extended"`
	BaselineComplete     bool      `json:"baseline_complete"      db:"baseline_complete"`
	BaselineSkipped      bool      `json:"baseline_skipped"       db:"baseline_skipped"`
	BaselineAverageDaily *float64  `json:"baseline_average_daily" db:"baseline_average_daily"`
	BaselineLoggedDays   int       `json:"baseline_logged_days"   db:"baseline_logged_days"`

	CurrentStreak    int       `json:"current_streak"     db:"current_streak"`
	LongestStreak    int       `json:"longest_streak"     db:"longest_streak"`
	LastActivityDate *DateOnly `json:"last_activity_date" db:"last_activity_date"`

	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`

	// Computed fields: populated server-side from the body fields; not stored.
	ComputedBMR  *int `json:"computed_bmr,omitempty"  db:"-"`
	ComputedTDEE *int `json:"computed_tdee,omitempty" db:"-"`
}

// weeklyPeriod maps to weekly_periods. Monday through Sunday, contiguous and
// non-overlapping per user.
type weeklyPeriod struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	UserID               int        `json:"user_id" db:"user_id"`
	WeekStartDate        DateOnly   `json:"week_start_date" db:"week_start_date"`
	WeekEndDate          DateOnly   `json:"week_end_date" db:"week_end_date"`
	BaselineAverageDaily float64    `json:"baseline_average_daily" db:"baseline_average_daily"`
	GoalAdjustment       int        `json:"goal_adjustment" db:"goal_adjustment"`
	WeeklyBudget         int        `json:"weekly_budget" db:"weekly_budget"`
	CreatedAt            *time.Time `json:"created_at" db:"created_at"`
}

// contains reports whether d falls inside the period, inclusive.
func (p weeklyPeriod) contains(d time.Time) bool {
	d = dayOf(d)
	return !d.Before(dayOf(p.WeekStartDate.Time)) && !d.After(dayOf(p.WeekEndDate.Time))
}

// weeklyMetrics maps to weekly_metrics, one row per weekly period.
// Consistency and drift are null until enough days are logged.
type weeklyMetrics struct {
	WeeklyPeriodID   uuid.UUID  `json:"weekly_period_id" db:"weekly_period_id"`
	BalanceScore     float64    `json:"balance_score" db:"balance_score"`
	ConsistencyScore *float64   `json:"consistency_score" db:"consistency_score"`
	DriftScore       *float64   `json:"drift_score" db:"drift_score"`
	TotalConsumed    int        `json:"total_consumed" db:"total_consumed"`
	TotalRemaining   int        `json:"total_remaining" db:"total_remaining"`
	CaloriesReserved int        `json:"calories_reserved" db:"calories_reserved"`
	DaysElapsed      int        `json:"days_elapsed" db:"days_elapsed"`
	LoggedDays       int        `json:"logged_days" db:"logged_days"`
	IsFinal          bool       `json:"is_final" db:"is_final"`
	UpdatedAt        *time.Time `json:"updated_at" db:"updated_at"`
}

// plannedCheatDay maps to planned_cheat_days. At most one per (user, date).
type plannedCheatDay struct {
	ID              int        `json:"id" db:"id"`
	UserID          int        `json:"user_id" db:"user_id"`
	WeeklyPeriodID  uuid.UUID  `json:"weekly_period_id" db:"weekly_period_id"`
	CheatDate       DateOnly   `json:"cheat_date" db:"cheat_date"`
	PlannedCalories int        `json:"planned_calories" db:"planned_calories"`
	IsCompleted     bool       `json:"is_completed" db:"is_completed"`
	CreatedAt       *time.Time `json:"created_at" db:"created_at"`
}

// weightEntry maps to weight_log. The latest entry is the bodyweight used for
// the weekly goal adjustment.
type weightEntry struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Date      DateOnly   `json:"date" db:"date"`
	WeightLBS float64    `json:"weight_lbs" db:"weight_lbs"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

/* ─── Requests ───────────────────────────────────────────────────────── */

// mealLogRequest is the request body for POST /api/meal-log/entries.
// Macros are optional and default to zero.
type mealLogRequest struct {
	LogDate  string   `json:"log_date"`
	MealType string   `json:"meal_type"`
	ItemName string   `json:"item_name"`
	Calories *int     `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatG     *float64 `json:"fat_g"`
}

// patchMealLogRequest is the request body for PUT /api/meal-log/entries/:id.
// Omitted fields keep their current value.
type patchMealLogRequest struct {
	LogDate  *string  `json:"log_date"`
	MealType *string  `json:"meal_type"`
	ItemName *string  `json:"item_name"`
	Calories *int     `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatG     *float64 `json:"fat_g"`
}

// patchProfileRequest is the request body for PATCH /api/profile.
// All fields are pointers; only non-nil fields get written to the database.
type patchProfileRequest struct {
	Goal           *string  `json:"goal"`
	WeeklyGoalRate *float64 `json:"weekly_goal_rate"`
	ActivityLevel  *string  `json:"activity_level"`
	Sex            *string  `json:"sex"`
	DateOfBirth    *string  `json:"date_of_birth"` // YYYY-MM-DD string, stored as date
	HeightCM       *float64 `json:"height_cm"`
	WeightLBS      *float64 `json:"weight_lbs"`
	SkipBaseline   *bool    `json:"skip_baseline"`
}

// cheatDayRequest is the request body for PUT /api/cheat-days/:date.
type cheatDayRequest struct {
	PlannedCalories *int `json:"planned_calories"`
}
