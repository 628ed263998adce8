package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// coachClient is one row of GET /api/coach/clients.
type coachClient struct {
	UserID           int            `json:"user_id"`
	Username         string         `json:"username"`
	Status           clientStatus   `json:"status"`
	CurrentStreak    int            `json:"current_streak"`
	LastActivityDate *DateOnly      `json:"last_activity_date"`
	Period           *weeklyPeriod  `json:"period"`
	Metrics          *weeklyMetrics `json:"metrics"`
}

// clientOverview reads one client's state without writing anything: the
// latest started week's metrics come from the frozen row when the week is
// over, and are scored in memory otherwise.
func clientOverview(ctx context.Context, q querier, u user, today time.Time, cfg engineConfig) (coachClient, error) {
	out := coachClient{UserID: u.ID, Username: u.Username, Status: statusInBaseline}

	p, err := loadProfile(ctx, q, u.ID, false)
	if errors.Is(err, ErrNoProfile) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	out.CurrentStreak = streakFromProfile(*p).currentAsOf(today)
	out.LastActivityDate = p.LastActivityDate

	period, err := latestStartedPeriod(ctx, q, u.ID, today)
	if err != nil {
		return out, err
	}
	if period != nil {
		out.Period = period
		m, err := loadMetrics(ctx, q, period.ID)
		if err != nil {
			return out, err
		}
		if m == nil || !m.IsFinal {
			summaries, err := summariesInRange(ctx, q, u.ID, period.WeekStartDate.Time, period.WeekEndDate.Time)
			if err != nil {
				return out, err
			}
			cheatDays, err := cheatDaysInRange(ctx, q, u.ID, period.WeekStartDate.Time, period.WeekEndDate.Time)
			if err != nil {
				return out, err
			}
			fresh := computeWeeklyMetrics(*period, summaries, cheatDays, today)
			m = &fresh
		}
		out.Metrics = m
	}

	out.Status = classifyClient(*p, out.Metrics, today, cfg)
	return out, nil
}

// getCoachClients lists the caller's clients with their status.
// GET /api/coach/clients. A user with no clients gets an empty array.
func (h *Handler) getCoachClients(c *gin.Context) {
	coachID := c.GetInt("user_id")
	today := h.today()

	clients, err := clientsOf(c, h.db, coachID)
	if err != nil {
		writeEngineError(c, "getCoachClients", err)
		return
	}

	out := make([]coachClient, len(clients))
	g, ctx := errgroup.WithContext(c)
	g.SetLimit(8)
	for i, u := range clients {
		i, u := i, u
		g.Go(func() error {
			row, err := clientOverview(ctx, h.db, u, today, h.cfg)
			if err != nil {
				return err
			}
			out[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeEngineError(c, "getCoachClients", err)
		return
	}

	c.JSON(http.StatusOK, out)
}
