package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler holds shared dependencies (db pool, engine config, clock) for all route handlers.
type Handler struct {
	db  *pgxpool.Pool
	cfg engineConfig
	now func() time.Time // overridable for tests
}

func newHandler(db *pgxpool.Pool, cfg engineConfig) *Handler {
	return &Handler{db: db, cfg: cfg, now: time.Now}
}

// today is the current calendar date in UTC.
func (h *Handler) today() time.Time {
	return dayOf(h.now().UTC())
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the helpers work
// inside and outside a per-user transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
func queryOne[T any](q querier, ctx context.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](q querier, ctx context.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryMany] Query error: %v", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryMany] Scan error: %v", err)
	}
	return results, err
}

// withUserTx runs fn in a transaction that holds the user's advisory lock,
// so every read-modify-write for one user is serialized while different
// users proceed in parallel. The user's lazy rollover runs first.
func (h *Handler) withUserTx(ctx context.Context, userID int, fn func(tx pgx.Tx, p *profile) error) error {
	today := h.today()
	return pgx.BeginFunc(ctx, h.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(@userID)", pgx.NamedArgs{"userID": userID}); err != nil {
			return fmt.Errorf("lock user %d: %w", userID, err)
		}
		p, err := syncUser(ctx, tx, userID, today, h.cfg)
		if err != nil {
			return err
		}
		return fn(tx, p)
	})
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool. We use a pool (not a single conn) because
// Neon closes idle connections after ~5 minutes.
func getDBPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from Neon's server-side prepared statement cache after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/meal-log/daily", h.getDailyLog)
	api.GET("/meal-log/summaries", h.getDailySummaries)
	api.POST("/meal-log/entries", h.createMealLogEntry)
	api.PUT("/meal-log/entries/:id", h.updateMealLogEntry)
	api.DELETE("/meal-log/entries/:id", h.deleteMealLogEntry)

	api.GET("/baseline", h.getBaseline)
	api.POST("/baseline/start", h.baselineCommandHandler(cmdStart))
	api.POST("/baseline/extend", h.baselineCommandHandler(cmdExtend))
	api.POST("/baseline/complete", h.completeBaseline)
	api.POST("/baseline/restart", h.baselineCommandHandler(cmdRestart))

	api.POST("/budget/recalculate", h.recalculateBudget)
	api.GET("/weekly-periods", h.listWeeklyPeriods)
	api.GET("/weekly-periods/current", h.getCurrentWeeklyPeriod)

	api.GET("/cheat-days", h.listCheatDays)
	api.PUT("/cheat-days/:date", h.reserveCheatDay)
	api.DELETE("/cheat-days/:date", h.cancelCheatDay)

	api.GET("/streak", h.getStreak)
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)

	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.upsertWeightEntry)
	api.PUT("/weight-log/:id", h.updateWeightEntry)
	api.DELETE("/weight-log/:id", h.deleteWeightEntry)

	api.GET("/coach/clients", h.getCoachClients)
}
