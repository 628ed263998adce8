package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var rootCmd = &cobra.Command{
	Use:   "calorie-budget-api",
	Short: "Calorie baseline and weekly budget API",
	Long:  "Serves the meal log, baseline, weekly budget, streak and treat-day reserve API, and runs the per-user rollover sweep.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		pool, err := getDBPool(cmd.Context(), cfg.DBURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		h := newHandler(pool, cfg.Engine)
		router := gin.Default()
		router.SetTrustedProxies(nil)
		h.registerRoutes(router)

		log.Printf("[serve] listening on :%s", cfg.Port)
		return router.Run(":" + cfg.Port)
	},
}

var sweepConcurrency int

// sweepCmd brings every user's periods and metrics up to date. Requests do
// the same lazily, so running it is optional; it keeps coach listings and
// finalized weeks fresh for users who have not opened the app.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Open due weekly periods and finalize ended ones for all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if sweepConcurrency > 0 {
			cfg.SweepConcurrency = sweepConcurrency
		}
		ctx := cmd.Context()
		pool, err := getDBPool(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		h := newHandler(pool, cfg.Engine)
		synced, err := h.sweep(ctx, cfg.SweepConcurrency)
		log.Printf("[sweep] synced %d user(s)", synced)
		return err
	},
}

// sweep runs the lazy rollover for every user with a profile, at most limit
// users at a time. Each user is synced in its own locked transaction, so a
// sweep can run alongside live traffic.
func (h *Handler) sweep(ctx context.Context, limit int) (int, error) {
	rows, err := h.db.Query(ctx, "SELECT user_id FROM profiles ORDER BY user_id")
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}
	userIDs, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}

	var synced atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, id := range userIDs {
		id := id
		g.Go(func() error {
			err := h.withUserTx(ctx, id, func(pgx.Tx, *profile) error { return nil })
			if errors.Is(err, ErrNoProfile) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("sync user %d: %w", id, err)
			}
			synced.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(synced.Load()), err
}

// setup loads .env (a missing file is fine; the environment may be set
// directly) and reads the config.
func setup() (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}
	return loadConfig()
}

func init() {
	sweepCmd.Flags().IntVar(&sweepConcurrency, "concurrency", 0, "Users synced in parallel (default SWEEP_CONCURRENCY)")
	rootCmd.AddCommand(serveCmd, sweepCmd)
}

func main() {
	log.SetPrefix("calorie-budget-api: ")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
