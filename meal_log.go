package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// maxSummaryRangeDays bounds GET /meal-log/summaries.
const maxSummaryRangeDays = 366

// dailyLogResponse is the response shape for GET /meal-log/daily.
type dailyLogResponse struct {
	Summary dailySummary   `json:"summary"`
	Entries []mealLogEntry `json:"entries"`
}

// mealLogWriteResponse is returned by every entry write: the entry and the
// recomputed summary of its date.
type mealLogWriteResponse struct {
	Entry   mealLogEntry `json:"entry"`
	Summary dailySummary `json:"summary"`
}

// notInFuture rejects dates after today; streaks and scores only run forward.
func notInFuture(d, today time.Time) error {
	if dayOf(d).After(today) {
		return fmt.Errorf("%w: log_date must not be in the future", ErrInvalidInput)
	}
	return nil
}

// getDailyLog returns the entries and summary for a given date.
// GET /api/meal-log/daily?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailyLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	date := h.today()
	if s := c.Query("date"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = d
	}

	entries, err := entriesForDate(c, h.db, userID, date)
	if err != nil {
		writeEngineError(c, "getDailyLog", err)
		return
	}
	// Ensure entries is an empty array (not null) in JSON
	if entries == nil {
		entries = []mealLogEntry{}
	}
	summary, err := loadDailySummary(c, h.db, userID, date)
	if err != nil {
		writeEngineError(c, "getDailyLog", err)
		return
	}

	c.JSON(http.StatusOK, dailyLogResponse{Summary: summary, Entries: entries})
}

// getDailySummaries returns stored summaries for a date range. Only dates
// that ever had an entry have a row; the client fills the gaps.
// GET /api/meal-log/summaries?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
func (h *Handler) getDailySummaries(c *gin.Context) {
	userID := c.GetInt("user_id")
	start, end, ok := parseRange(c)
	if !ok {
		return
	}

	summaries, err := summariesInRange(c, h.db, userID, start, end)
	if err != nil {
		writeEngineError(c, "getDailySummaries", err)
		return
	}
	if summaries == nil {
		summaries = []dailySummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

// parseRange reads and validates the start/end query params, writing a 400
// and returning ok=false on failure.
func parseRange(c *gin.Context) (start, end time.Time, ok bool) {
	startStr, endStr := c.Query("start"), c.Query("end")
	if startStr == "" || endStr == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return start, end, false
	}
	start, err := parseDate(startStr)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return start, end, false
	}
	end, err = parseDate(endStr)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return start, end, false
	}
	if start.After(end) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return start, end, false
	}
	if daysBetween(start, end) > maxSummaryRangeDays {
		apiError(c, http.StatusBadRequest, "range must not exceed 366 days")
		return start, end, false
	}
	return start, end, true
}

// createMealLogEntry inserts a new entry and recomputes its day.
// POST /api/meal-log/entries. Defaults log_date to today if omitted.
func (h *Handler) createMealLogEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body mealLogRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	today := h.today()
	entry, err := entryFromRequest(userID, body, today)
	if err == nil {
		err = notInFuture(entry.LogDate.Time, today)
	}
	if err != nil {
		writeEngineError(c, "createMealLogEntry", err)
		return
	}

	var resp mealLogWriteResponse
	err = h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		created, err := insertMealLogEntry(c, tx, entry)
		if err != nil {
			return err
		}
		summary, err := afterDayChanged(c, tx, p, created.LogDate.Time, today)
		if err != nil {
			return err
		}
		resp = mealLogWriteResponse{Entry: created, Summary: summary}
		return nil
	})
	if err != nil {
		writeEngineError(c, "createMealLogEntry", err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// updateMealLogEntry edits an existing entry. Omitted fields keep their
// current value. Moving an entry to another date recomputes both days.
// PUT /api/meal-log/entries/:id.
func (h *Handler) updateMealLogEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}

	var body patchMealLogRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	today := h.today()

	var resp mealLogWriteResponse
	err = h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		current, err := queryOne[mealLogEntry](tx, c,
			"SELECT * FROM meal_log_entries WHERE id = @id AND user_id = @userID FOR UPDATE",
			pgx.NamedArgs{"id": id, "userID": userID})
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("meal log entry %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		next, err := applyMealLogPatch(current, body)
		if err != nil {
			return err
		}
		if err := notInFuture(next.LogDate.Time, today); err != nil {
			return err
		}

		updated, err := queryOne[mealLogEntry](tx, c,
			`UPDATE meal_log_entries SET
				log_date = @logDate, meal_type = @mealType, item_name = @itemName,
				calories = @calories, protein_g = @proteinG, carbs_g = @carbsG, fat_g = @fatG,
				updated_at = now()
			 WHERE id = @id AND user_id = @userID
			 RETURNING *`,
			pgx.NamedArgs{
				"id": id, "userID": userID,
				"logDate": fmtDate(next.LogDate.Time), "mealType": next.MealType,
				"itemName": next.ItemName, "calories": next.Calories,
				"proteinG": next.ProteinG, "carbsG": next.CarbsG, "fatG": next.FatG,
			})
		if err != nil {
			return fmt.Errorf("update meal log entry: %w", err)
		}

		if !dayOf(current.LogDate.Time).Equal(dayOf(updated.LogDate.Time)) {
			if _, err := afterDayChanged(c, tx, p, current.LogDate.Time, today); err != nil {
				return err
			}
		}
		summary, err := afterDayChanged(c, tx, p, updated.LogDate.Time, today)
		if err != nil {
			return err
		}
		resp = mealLogWriteResponse{Entry: updated, Summary: summary}
		return nil
	})
	if err != nil {
		writeEngineError(c, "updateMealLogEntry", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// deleteMealLogEntry removes an entry and recomputes its day.
// DELETE /api/meal-log/entries/:id. Returns the recomputed summary.
func (h *Handler) deleteMealLogEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}
	today := h.today()

	var summary dailySummary
	err = h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		deleted, err := queryOne[mealLogEntry](tx, c,
			"DELETE FROM meal_log_entries WHERE id = @id AND user_id = @userID RETURNING *",
			pgx.NamedArgs{"id": id, "userID": userID})
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("meal log entry %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		summary, err = afterDayChanged(c, tx, p, deleted.LogDate.Time, today)
		return err
	})
	if err != nil {
		writeEngineError(c, "deleteMealLogEntry", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func insertMealLogEntry(ctx context.Context, q querier, e mealLogEntry) (mealLogEntry, error) {
	created, err := queryOne[mealLogEntry](q, ctx,
		`INSERT INTO meal_log_entries (user_id, log_date, meal_type, item_name, calories, protein_g, carbs_g, fat_g)
		 VALUES (@userID, @logDate, @mealType, @itemName, @calories, @proteinG, @carbsG, @fatG)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": e.UserID, "logDate": fmtDate(e.LogDate.Time),
			"mealType": e.MealType, "itemName": e.ItemName,
			"calories": e.Calories, "proteinG": e.ProteinG,
			"carbsG": e.CarbsG, "fatG": e.FatG,
		})
	if err != nil {
		return created, fmt.Errorf("insert meal log entry: %w", err)
	}
	return created, nil
}
