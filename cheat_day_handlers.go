package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// cheatDayResponse is returned by PUT /api/cheat-days/:date.
type cheatDayResponse struct {
	CheatDay plannedCheatDay `json:"cheat_day"`
	Period   periodView      `json:"period"`
}

// cheatDateParam parses the :date path param and checks it lies between
// today and the reservation horizon.
func (h *Handler) cheatDateParam(c *gin.Context, today time.Time) (time.Time, error) {
	d, err := parseDate(c.Param("date"))
	if err != nil {
		return d, fmt.Errorf("%w: invalid date, expected YYYY-MM-DD", ErrInvalidInput)
	}
	if d.Before(today) {
		return d, fmt.Errorf("%w: cheat day must not be in the past", ErrInvalidInput)
	}
	if horizon := today.AddDate(0, 0, 7*h.cfg.ReserveHorizonWeeks); d.After(horizon) {
		return d, fmt.Errorf("%w: cheat day must be on or before %s", ErrInvalidInput, fmtDate(horizon))
	}
	return d, nil
}

// listCheatDays returns treat days in a range.
// GET /api/cheat-days?start=&end= (defaults to today through the reservation horizon).
func (h *Handler) listCheatDays(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()
	start, end := today, today.AddDate(0, 0, 7*h.cfg.ReserveHorizonWeeks)
	if c.Query("start") != "" || c.Query("end") != "" {
		var ok bool
		if start, end, ok = parseRange(c); !ok {
			return
		}
	}

	days, err := cheatDaysInRange(c, h.db, userID, start, end)
	if err != nil {
		writeEngineError(c, "listCheatDays", err)
		return
	}
	if days == nil {
		days = []plannedCheatDay{}
	}
	c.JSON(http.StatusOK, days)
}

// reserveCheatDay reserves (or re-reserves) calories for a future date out
// of the weekly budget of the period containing it. Future periods are
// opened on demand so the reservation has a week to draw from.
// PUT /api/cheat-days/:date. Body: { "planned_calories": 2800 }.
func (h *Handler) reserveCheatDay(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	date, err := h.cheatDateParam(c, today)
	if err != nil {
		writeEngineError(c, "reserveCheatDay", err)
		return
	}
	var body cheatDayRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.PlannedCalories == nil {
		apiError(c, http.StatusBadRequest, "planned_calories is required")
		return
	}

	var resp cheatDayResponse
	err = h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		if _, err := openDuePeriods(c, tx, p, date, today, h.cfg); err != nil {
			return err
		}
		period, err := periodContaining(c, tx, userID, date)
		if err != nil {
			return err
		}
		if period == nil {
			return fmt.Errorf("%w: no weekly period covers %s", ErrNoActiveBaseline, fmtDate(date))
		}

		existing, err := cheatDaysInRange(c, tx, userID, period.WeekStartDate.Time, period.WeekEndDate.Time)
		if err != nil {
			return err
		}
		if _, err := checkReservation(*period, existing, date, *body.PlannedCalories, today); err != nil {
			return err
		}
		cd, err := upsertCheatDay(c, tx, userID, period.ID, date, *body.PlannedCalories)
		if err != nil {
			return err
		}
		view, err := buildPeriodView(c, tx, *period, today)
		if err != nil {
			return err
		}
		resp = cheatDayResponse{CheatDay: cd, Period: view}
		return nil
	})
	if err != nil {
		writeEngineError(c, "reserveCheatDay", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// cancelCheatDay releases a future reservation back into the weekly budget.
// DELETE /api/cheat-days/:date. Returns the updated period.
func (h *Handler) cancelCheatDay(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	date, err := h.cheatDateParam(c, today)
	if err != nil {
		writeEngineError(c, "cancelCheatDay", err)
		return
	}

	var view periodView
	err = h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		if err := deleteCheatDay(c, tx, userID, date); err != nil {
			return err
		}
		period, err := periodContaining(c, tx, userID, date)
		if err != nil || period == nil {
			return err
		}
		view, err = buildPeriodView(c, tx, *period, today)
		return err
	})
	if err != nil {
		writeEngineError(c, "cancelCheatDay", err)
		return
	}
	c.JSON(http.StatusOK, view)
}
