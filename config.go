package main

import (
	"fmt"
	"os"
	"strconv"
)

// config is loaded once at startup from the environment (.env via godotenv).
type config struct {
	DBURL            string
	Port             string
	SweepConcurrency int
	Engine           engineConfig
}

// engineConfig holds the policy constants the engine functions take as an
// explicit argument. Nothing in the engine reads globals.
type engineConfig struct {
	BaselineDays         int     // default observation window
	BaselineExtendedDays int     // window after a single extension
	LowConfidenceDays    int     // fewer logged days than this flags the baseline
	KcalPerLb            float64 // energy equivalent of one pound of body mass
	DefaultDailyCalories int     // fallback estimate without a baseline or profile
	ReserveHorizonWeeks  int     // how far ahead treat days may be reserved
	FollowupInactiveDays int
	FollowupBalanceMin   float64
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		BaselineDays:         7,
		BaselineExtendedDays: 10,
		LowConfidenceDays:    4,
		KcalPerLb:            3500,
		DefaultDailyCalories: 2000,
		ReserveHorizonWeeks:  4,
		FollowupInactiveDays: 2,
		FollowupBalanceMin:   60,
	}
}

// loadConfig reads the environment. Call godotenv.Load before it.
func loadConfig() (config, error) {
	cfg := config{
		DBURL:            os.Getenv("DB_URL"),
		Port:             envOr("PORT", "3000"),
		SweepConcurrency: 8,
		Engine:           defaultEngineConfig(),
	}
	if cfg.DBURL == "" {
		return cfg, fmt.Errorf("DB_URL not set")
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SWEEP_CONCURRENCY", &cfg.SweepConcurrency},
		{"DEFAULT_DAILY_CALORIES", &cfg.Engine.DefaultDailyCalories},
		{"LOW_CONFIDENCE_DAYS", &cfg.Engine.LowConfidenceDays},
		{"RESERVE_HORIZON_WEEKS", &cfg.Engine.ReserveHorizonWeeks},
		{"FOLLOWUP_INACTIVE_DAYS", &cfg.Engine.FollowupInactiveDays},
	}
	for _, v := range ints {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("%s must be a non-negative integer, got %q", v.key, raw)
		}
		*v.dst = n
	}

	if raw := os.Getenv("FOLLOWUP_BALANCE_MIN"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 || f > 100 {
			return cfg, fmt.Errorf("FOLLOWUP_BALANCE_MIN must be between 0 and 100, got %q", raw)
		}
		cfg.Engine.FollowupBalanceMin = f
	}
	if cfg.SweepConcurrency < 1 {
		cfg.SweepConcurrency = 1
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
