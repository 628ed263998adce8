package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// completionResponse is returned by POST /api/baseline/complete.
type completionResponse struct {
	Baseline        baselineStatus `json:"baseline"`
	Result          baselineResult `json:"result"`
	AlreadyComplete bool           `json:"already_complete"`
	Period          *periodView    `json:"period"`
	Warnings        []string       `json:"warnings"`
}

// loggedDaysInWindow counts logged days from the window start through today.
func loggedDaysInWindow(ctx context.Context, q querier, p *profile, today time.Time) (int, error) {
	b := baselineFromProfile(*p)
	if !b.open() {
		return p.BaselineLoggedDays, nil
	}
	summaries, err := summariesInRange(ctx, q, p.UserID, *b.StartDate, today)
	if err != nil {
		return 0, err
	}
	return countLoggedDays(*b.StartDate, today, summaries), nil
}

// getBaseline returns the baseline state and the decisions currently allowed.
// GET /api/baseline.
func (h *Handler) getBaseline(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	var status baselineStatus
	err := h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		logged, err := loggedDaysInWindow(c, tx, p, today)
		if err != nil {
			return err
		}
		status = describeBaseline(*p, logged, today, h.cfg)
		return nil
	})
	if err != nil {
		writeEngineError(c, "getBaseline", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// baselineCommandHandler applies start, extend or restart. Each is a single
// guarded transition; a rejected command leaves the profile untouched.
// POST /api/baseline/{start,extend,restart}.
func (h *Handler) baselineCommandHandler(cmd baselineCommand) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("user_id")
		today := h.today()

		var status baselineStatus
		err := h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
			logged, err := loggedDaysInWindow(c, tx, p, today)
			if err != nil {
				return err
			}
			next, err := transitionBaseline(baselineFromProfile(*p), cmd, today, logged, h.cfg)
			if err != nil {
				return err
			}
			applyBaselineToProfile(p, next)
			if cmd != cmdExtend {
				p.BaselineLoggedDays = 0
			}
			if err := saveEngineState(c, tx, p); err != nil {
				return err
			}
			// Recount over the new window; today's entries may already exist.
			if logged, err = loggedDaysInWindow(c, tx, p, today); err != nil {
				return err
			}
			status = describeBaseline(*p, logged, today, h.cfg)
			return nil
		})
		if err != nil {
			writeEngineError(c, "baseline "+string(cmd), err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// completeBaseline freezes the window, averages its logged days, and seeds
// the first weekly period. Completing an already-completed baseline returns
// the stored result and opens nothing.
// POST /api/baseline/complete.
func (h *Handler) completeBaseline(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	var resp completionResponse
	err := h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		b := baselineFromProfile(*p)
		if b.state(today) == baselineCompleted {
			resp.AlreadyComplete = true
			resp.Result = storedBaselineResult(p, h.cfg)
		} else {
			next, err := transitionBaseline(b, cmdComplete, today, 0, h.cfg)
			if err != nil {
				return err
			}
			summaries, err := summariesInRange(c, tx, userID, *next.StartDate, *next.EndDate)
			if err != nil {
				return err
			}
			fallback := fallbackDailyEstimate(p, today, h.cfg)
			resp.Result = summarizeBaseline(*next.StartDate, *next.EndDate, summaries, fallback, h.cfg)

			applyBaselineToProfile(p, next)
			avg := resp.Result.AverageDaily
			p.BaselineAverageDaily = &avg
			p.BaselineLoggedDays = resp.Result.LoggedDays
			if err := saveEngineState(c, tx, p); err != nil {
				return err
			}
			if _, err := openDuePeriods(c, tx, p, today, today, h.cfg); err != nil {
				return err
			}
		}

		period, err := currentOrNextPeriod(c, tx, userID, today)
		if err != nil {
			return err
		}
		if period != nil {
			view, err := buildPeriodView(c, tx, *period, today)
			if err != nil {
				return err
			}
			resp.Period = &view
		}
		resp.Baseline = describeBaseline(*p, p.BaselineLoggedDays, today, h.cfg)
		resp.Warnings = resp.Result.Warnings
		return nil
	})
	if err != nil {
		writeEngineError(c, "completeBaseline", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// storedBaselineResult rebuilds the completion result from the profile.
func storedBaselineResult(p *profile, cfg engineConfig) baselineResult {
	res := baselineResult{LoggedDays: p.BaselineLoggedDays, Warnings: []string{}}
	if p.BaselineAverageDaily != nil {
		res.AverageDaily = *p.BaselineAverageDaily
	}
	if res.LoggedDays < cfg.LowConfidenceDays {
		res.LowConfidence = true
		res.Warnings = append(res.Warnings, warnLowConfidenceBaseline)
	}
	return res
}
