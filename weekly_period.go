package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// periodView is a weekly period as the UI reads it: budget, scores, treat
// days, and what is left per day.
type periodView struct {
	Period                   weeklyPeriod      `json:"period"`
	Metrics                  *weeklyMetrics    `json:"metrics"`
	CheatDays                []plannedCheatDay `json:"cheat_days"`
	RemainingNonReservedDays int               `json:"remaining_non_reserved_days"`
	EffectiveDailyAllowance  decimal.Decimal   `json:"effective_daily_allowance"`
	Provisional              bool              `json:"provisional"`
	Warnings                 []string          `json:"warnings"`
}

// buildPeriodView refreshes the period's metrics (days elapse without any
// write) and derives the per-day allowance.
func buildPeriodView(ctx context.Context, q querier, p weeklyPeriod, today time.Time) (periodView, error) {
	metrics, err := refreshMetrics(ctx, q, p, today)
	if err != nil {
		return periodView{}, err
	}
	cheatDays, err := cheatDaysInRange(ctx, q, p.UserID, p.WeekStartDate.Time, p.WeekEndDate.Time)
	if err != nil {
		return periodView{}, err
	}
	if cheatDays == nil {
		cheatDays = []plannedCheatDay{}
	}
	remaining := remainingNonReservedDays(p, cheatDays, today)
	return periodView{
		Period:                   p,
		Metrics:                  metrics,
		CheatDays:                cheatDays,
		RemainingNonReservedDays: remaining,
		EffectiveDailyAllowance:  effectiveDailyAllowance(p.WeeklyBudget, reservedCalories(p, cheatDays, nil), remaining),
		Warnings:                 []string{},
	}, nil
}

// provisionalView is the unsaved budget served when the user has no
// baseline average (or no profile) to derive one from.
func provisionalView(p *profile, today time.Time, warning string, cfg engineConfig) periodView {
	in := budgetInputs{AverageDaily: float64(fallbackDailyEstimate(p, today, cfg)), Goal: "maintain"}
	if p != nil {
		in.UserID = p.UserID
		in.Goal = p.Goal
		in.WeeklyGoalRate = p.WeeklyGoalRate
		if p.WeightLBS != nil {
			in.BodyweightLBS = *p.WeightLBS
		}
	}
	period := provisionalPeriod(today, in, cfg)
	remaining := remainingNonReservedDays(period, nil, today)
	return periodView{
		Period:                   period,
		CheatDays:                []plannedCheatDay{},
		RemainingNonReservedDays: remaining,
		EffectiveDailyAllowance:  effectiveDailyAllowance(period.WeeklyBudget, 0, remaining),
		Provisional:              true,
		Warnings:                 []string{warning},
	}
}

// currentView returns the view of the current (or next seeded) period, or a
// provisional one when nothing has been opened yet.
func (h *Handler) currentView(ctx context.Context, tx pgx.Tx, p *profile, today time.Time) (periodView, error) {
	if _, err := openDuePeriods(ctx, tx, p, today, today, h.cfg); err != nil {
		return periodView{}, err
	}
	period, err := currentOrNextPeriod(ctx, tx, p.UserID, today)
	if err != nil {
		return periodView{}, err
	}
	if period == nil {
		return provisionalView(p, today, warnNoActiveBaseline, h.cfg), nil
	}
	return buildPeriodView(ctx, tx, *period, today)
}

// recalculateBudget is the budget entry point. It takes no body beyond the
// caller's identity and is safe to call repeatedly: it returns the existing
// current period, seeding one only when a completed baseline has none yet.
// Without a baseline or profile it answers with a provisional budget and a
// warning instead of failing.
// POST /api/budget/recalculate.
func (h *Handler) recalculateBudget(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	var view periodView
	err := h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		var err error
		view, err = h.currentView(c, tx, p, today)
		return err
	})
	if errors.Is(err, ErrNoProfile) {
		c.JSON(http.StatusOK, provisionalView(nil, today, warnNoProfile, h.cfg))
		return
	}
	if err != nil {
		writeEngineError(c, "recalculateBudget", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// getCurrentWeeklyPeriod returns the current period with metrics and allowance.
// GET /api/weekly-periods/current.
func (h *Handler) getCurrentWeeklyPeriod(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	var view periodView
	err := h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		var err error
		view, err = h.currentView(c, tx, p, today)
		return err
	})
	if err != nil {
		writeEngineError(c, "getCurrentWeeklyPeriod", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// periodWithMetrics is one item of GET /api/weekly-periods.
type periodWithMetrics struct {
	Period  weeklyPeriod   `json:"period"`
	Metrics *weeklyMetrics `json:"metrics"`
}

// listWeeklyPeriods returns the most recent periods, newest first.
// GET /api/weekly-periods?limit=N (default 12, max 104).
func (h *Handler) listWeeklyPeriods(c *gin.Context) {
	userID := c.GetInt("user_id")
	limit := 12
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 104 {
			apiError(c, http.StatusBadRequest, "limit must be between 1 and 104")
			return
		}
		limit = n
	}

	out := []periodWithMetrics{}
	err := h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		periods, err := recentPeriods(c, tx, userID, limit)
		if err != nil {
			return err
		}
		for _, period := range periods {
			m, err := loadMetrics(c, tx, period.ID)
			if err != nil {
				return err
			}
			out = append(out, periodWithMetrics{Period: period, Metrics: m})
		}
		return nil
	})
	if err != nil {
		writeEngineError(c, "listWeeklyPeriods", err)
		return
	}
	c.JSON(http.StatusOK, out)
}
