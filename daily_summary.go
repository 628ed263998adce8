package main

import (
	"fmt"
	"strings"
	"time"
)

// validMealTypes is the set of allowed values for meal_log_entries.meal_type.
// Reject unknown values with 400 rather than letting the DB return a cryptic 500.
var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

// validateMealLog checks a fully-resolved entry before it is written.
// Nothing that fails here is ever persisted.
func validateMealLog(e mealLogEntry) error {
	if strings.TrimSpace(e.ItemName) == "" {
		return fmt.Errorf("%w: item_name is required", ErrInvalidInput)
	}
	if !validMealTypes[e.MealType] {
		return fmt.Errorf("%w: meal_type must be one of: breakfast, lunch, dinner, snack", ErrInvalidInput)
	}
	if e.LogDate.Time.IsZero() {
		return fmt.Errorf("%w: log_date is required", ErrInvalidInput)
	}
	if e.Calories < 0 {
		return fmt.Errorf("%w: calories must be >= 0", ErrInvalidInput)
	}
	if e.ProteinG < 0 || e.CarbsG < 0 || e.FatG < 0 {
		return fmt.Errorf("%w: macros must be >= 0", ErrInvalidInput)
	}
	return nil
}

// entryFromRequest resolves a create request into an entry, defaulting the
// date to today and macros to zero.
func entryFromRequest(userID int, req mealLogRequest, today time.Time) (mealLogEntry, error) {
	e := mealLogEntry{
		UserID:   userID,
		MealType: req.MealType,
		ItemName: strings.TrimSpace(req.ItemName),
		LogDate:  DateOnly{dayOf(today)},
	}
	if req.LogDate != "" {
		d, err := parseDate(req.LogDate)
		if err != nil {
			return e, fmt.Errorf("%w: invalid log_date, expected YYYY-MM-DD", ErrInvalidInput)
		}
		e.LogDate = DateOnly{d}
	}
	if req.Calories == nil {
		return e, fmt.Errorf("%w: calories is required", ErrInvalidInput)
	}
	e.Calories = *req.Calories
	if req.ProteinG != nil {
		e.ProteinG = *req.ProteinG
	}
	if req.CarbsG != nil {
		e.CarbsG = *req.CarbsG
	}
	if req.FatG != nil {
		e.FatG = *req.FatG
	}
	return e, validateMealLog(e)
}

// applyMealLogPatch overlays the non-nil request fields onto e.
func applyMealLogPatch(e mealLogEntry, req patchMealLogRequest) (mealLogEntry, error) {
	if req.LogDate != nil {
		d, err := parseDate(*req.LogDate)
		if err != nil {
			return e, fmt.Errorf("%w: invalid log_date, expected YYYY-MM-DD", ErrInvalidInput)
		}
		e.LogDate = DateOnly{d}
	}
	if req.MealType != nil {
		e.MealType = *req.MealType
	}
	if req.ItemName != nil {
		e.ItemName = strings.TrimSpace(*req.ItemName)
	}
	if req.Calories != nil {
		e.Calories = *req.Calories
	}
	if req.ProteinG != nil {
		e.ProteinG = *req.ProteinG
	}
	if req.CarbsG != nil {
		e.CarbsG = *req.CarbsG
	}
	if req.FatG != nil {
		e.FatG = *req.FatG
	}
	return e, validateMealLog(e)
}

// aggregateDay sums every current entry for one (user, date) into its summary.
// It never starts from a previous summary, so re-running it over the same
// entries always yields the same result.
func aggregateDay(userID int, date time.Time, entries []mealLogEntry) dailySummary {
	s := dailySummary{UserID: userID, Date: DateOnly{dayOf(date)}}
	for _, e := range entries {
		if !dayOf(e.LogDate.Time).Equal(s.Date.Time) {
			continue
		}
		s.CaloriesConsumed += e.Calories
		s.ProteinG += e.ProteinG
		s.CarbsG += e.CarbsG
		s.FatG += e.FatG
		s.EntryCount++
	}
	s.IsLogged = s.EntryCount > 0
	return s
}

// summariesByDate indexes summaries by their "YYYY-MM-DD" date.
func summariesByDate(summaries []dailySummary) map[string]dailySummary {
	byDate := make(map[string]dailySummary, len(summaries))
	for _, s := range summaries {
		byDate[fmtDate(s.Date.Time)] = s
	}
	return byDate
}
