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

// Weigh-ins feed the goal adjustment of weeks opened after them; a period's
// budget never changes once it exists.

func validWeight(lbs float64) error {
	if lbs <= 0 || lbs > 9999.9 {
		return fmt.Errorf("%w: weight_lbs must be between 0 and 9999.9", ErrInvalidInput)
	}
	return nil
}

// getWeightLog returns weight entries for the authenticated user within [start, end].
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no entries exist in the range.
func (h *Handler) getWeightLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	start, end, ok := parseRange(c)
	if !ok {
		return
	}

	entries, err := weightEntriesInRange(c, h.db, userID, start, end)
	if err != nil {
		writeEngineError(c, "getWeightLog", err)
		return
	}
	// Ensure empty array (not null) in JSON
	if entries == nil {
		entries = []weightEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// upsertWeightEntry creates or updates the weight entry for the given date.
// POST /api/weight-log. Body: { "date": "YYYY-MM-DD", "weight_lbs": 185.5 }.
// The UNIQUE(user_id, date) constraint means posting the same date updates in place.
func (h *Handler) upsertWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		Date      string  `json:"date"`
		WeightLBS float64 `json:"weight_lbs"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date == "" {
		apiError(c, http.StatusBadRequest, "date is required")
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if err := validWeight(body.WeightLBS); err != nil {
		writeEngineError(c, "upsertWeightEntry", err)
		return
	}

	entry, err := queryOne[weightEntry](h.db, c,
		`INSERT INTO weight_log (user_id, date, weight_lbs)
		 VALUES (@userID, @date, @weightLBS)
		 ON CONFLICT (user_id, date) DO UPDATE SET weight_lbs = EXCLUDED.weight_lbs
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": fmtDate(date), "weightLBS": body.WeightLBS})
	if err != nil {
		writeEngineError(c, "upsertWeightEntry", fmt.Errorf("upsert weight entry: %w", err))
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// updateWeightEntry partially updates an existing weight entry.
// PUT /api/weight-log/:id. Body: { "date"?, "weight_lbs"? }.
// Uses COALESCE so omitted fields keep their current values.
func (h *Handler) updateWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}

	var body struct {
		Date      *string  `json:"date"`
		WeightLBS *float64 `json:"weight_lbs"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date != nil {
		if _, err := parseDate(*body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}
	if body.WeightLBS != nil {
		if err := validWeight(*body.WeightLBS); err != nil {
			writeEngineError(c, "updateWeightEntry", err)
			return
		}
	}

	entry, err := queryOne[weightEntry](h.db, c,
		`UPDATE weight_log SET
			date       = COALESCE(@date::date, date),
			weight_lbs = COALESCE(@weightLBS, weight_lbs)
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{"id": id, "userID": userID, "date": body.Date, "weightLBS": body.WeightLBS})
	if errors.Is(err, pgx.ErrNoRows) {
		writeEngineError(c, "updateWeightEntry", fmt.Errorf("weight entry %d: %w", id, ErrNotFound))
		return
	}
	if err != nil {
		writeEngineError(c, "updateWeightEntry", fmt.Errorf("update weight entry: %w", err))
		return
	}

	c.JSON(http.StatusOK, entry)
}

// deleteWeightEntry removes a weight log entry by ID.
// DELETE /api/weight-log/:id. Returns 204 on success, 404 if not found.
// Ownership is enforced by requiring both id and user_id to match.
func (h *Handler) deleteWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}

	result, err := h.db.Exec(c,
		"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		writeEngineError(c, "deleteWeightEntry", fmt.Errorf("delete weight entry: %w", err))
		return
	}
	if result.RowsAffected() == 0 {
		writeEngineError(c, "deleteWeightEntry", fmt.Errorf("weight entry %d: %w", id, ErrNotFound))
		return
	}

	c.Status(http.StatusNoContent)
}

func weightEntriesInRange(ctx context.Context, q querier, userID int, start, end time.Time) ([]weightEntry, error) {
	entries, err := queryMany[weightEntry](q, ctx,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": fmtDate(start), "end": fmtDate(end)})
	if err != nil {
		return nil, fmt.Errorf("load weight log: %w", err)
	}
	return entries, nil
}
