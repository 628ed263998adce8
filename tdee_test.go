package main

import (
	"testing"
	"time"
)

// testToday is the fixed "today" used across engine tests.
var testToday = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

// makeProfile constructs a profile with every body field set. Individual
// tests nil out specific fields to exercise missing-field guards.
func makeProfile(sex string, dobYear int, heightCM, weightLBS float64, activityLevel string) *profile {
	dob := DateOnly{time.Date(dobYear, 1, 1, 0, 0, 0, 0, time.UTC)}
	return &profile{
		Goal:          "maintain",
		Sex:           &sex,
		DateOfBirth:   &dob,
		HeightCM:      &heightCM,
		WeightLBS:     &weightLBS,
		ActivityLevel: &activityLevel,
	}
}

/* ─── Missing-field guard tests ──────────────────────────────────────── */

// TestComputeTDEE_MissingFields verifies that ok=false is returned when any
// required body field is nil.
func TestComputeTDEE_MissingFields(t *testing.T) {
	cases := []struct {
		name  string
		mutFn func(p *profile)
	}{
		{"nil Sex", func(p *profile) { p.Sex = nil }},
		{"nil DateOfBirth", func(p *profile) { p.DateOfBirth = nil }},
		{"nil HeightCM", func(p *profile) { p.HeightCM = nil }},
		{"nil WeightLBS", func(p *profile) { p.WeightLBS = nil }},
		{"nil ActivityLevel", func(p *profile) { p.ActivityLevel = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := makeProfile("male", 1990, 175, 180, "sedentary")
			tc.mutFn(p)
			if _, _, ok := computeTDEE(p, testToday); ok {
				t.Errorf("expected ok=false when %s is nil, got ok=true", tc.name)
			}
		})
	}
}

/* ─── Input validation guard tests ───────────────────────────────────── */

func TestComputeTDEE_UnknownActivityLevel(t *testing.T) {
	p := makeProfile("male", 1990, 175, 180, "unknown")
	if _, _, ok := computeTDEE(p, testToday); ok {
		t.Error("expected ok=false for unknown activity level, got ok=true")
	}
}

func TestComputeTDEE_FutureDOB(t *testing.T) {
	p := makeProfile("male", testToday.Year()+1, 175, 180, "sedentary")
	if _, _, ok := computeTDEE(p, testToday); ok {
		t.Error("expected ok=false for future date of birth, got ok=true")
	}
}

func TestComputeTDEE_AgeTooHigh(t *testing.T) {
	p := makeProfile("male", testToday.Year()-200, 175, 180, "sedentary")
	if _, _, ok := computeTDEE(p, testToday); ok {
		t.Error("expected ok=false for age > 130, got ok=true")
	}
}

/* ─── BMR accuracy tests ─────────────────────────────────────────────── */

// TestComputeTDEE_MaleBMR checks Mifflin-St Jeor with a fixed today.
//
// Inputs: male, born 1990-01-01 (36 on 2026-10-16), 175cm, 180lbs, sedentary.
// weightKG=180/2.20462≈81.65, bmr=10*81.65+6.25*175-5*36+5≈1735.2, tdee=bmr*1.2≈2082.3
func TestComputeTDEE_MaleBMR(t *testing.T) {
	p := makeProfile("male", 1990, 175, 180, "sedentary")
	bmr, tdee, ok := computeTDEE(p, testToday)
	if !ok {
		t.Fatal("expected ok=true, got ok=false")
	}
	if bmr != 1735 {
		t.Errorf("male BMR = %d, want 1735", bmr)
	}
	if tdee != 2082 {
		t.Errorf("male TDEE = %d, want 2082", tdee)
	}
}

// TestComputeTDEE_FemaleBMR uses the same inputs with -161 instead of +5.
func TestComputeTDEE_FemaleBMR(t *testing.T) {
	p := makeProfile("female", 1990, 175, 180, "sedentary")
	bmr, tdee, ok := computeTDEE(p, testToday)
	if !ok {
		t.Fatal("expected ok=true, got ok=false")
	}
	if bmr != 1569 {
		t.Errorf("female BMR = %d, want 1569", bmr)
	}
	if tdee != 1883 {
		t.Errorf("female TDEE = %d, want 1883", tdee)
	}
}

// TestComputeTDEE_BirthdayNotYetReached: born Dec 1990, still 35 in October 2026.
func TestComputeTDEE_BirthdayNotYetReached(t *testing.T) {
	p := makeProfile("male", 1990, 175, 180, "sedentary")
	dob := DateOnly{time.Date(1990, 12, 1, 0, 0, 0, 0, time.UTC)}
	p.DateOfBirth = &dob
	bmr, _, ok := computeTDEE(p, testToday)
	if !ok {
		t.Fatal("expected ok=true, got ok=false")
	}
	if bmr != 1740 {
		t.Errorf("BMR at age 35 = %d, want 1740", bmr)
	}
}

/* ─── Fallback estimate tests ────────────────────────────────────────── */

func TestFallbackDailyEstimate(t *testing.T) {
	cfg := defaultEngineConfig()

	if got := fallbackDailyEstimate(nil, testToday, cfg); got != 2000 {
		t.Errorf("nil profile: got %d, want configured default 2000", got)
	}
	if got := fallbackDailyEstimate(&profile{Goal: "maintain"}, testToday, cfg); got != 2000 {
		t.Errorf("profile without body fields: got %d, want 2000", got)
	}
	if got := fallbackDailyEstimate(makeProfile("male", 1990, 175, 180, "sedentary"), testToday, cfg); got != 2082 {
		t.Errorf("full profile: got %d, want TDEE 2082", got)
	}

	cfg.DefaultDailyCalories = 1800
	if got := fallbackDailyEstimate(nil, testToday, cfg); got != 1800 {
		t.Errorf("custom default: got %d, want 1800", got)
	}
}

func TestPopulateComputedTDEE(t *testing.T) {
	p := makeProfile("male", 1990, 175, 180, "sedentary")
	populateComputedTDEE(p, testToday)
	if p.ComputedBMR == nil || p.ComputedTDEE == nil {
		t.Fatal("expected computed fields to be set")
	}
	if *p.ComputedTDEE != 2082 {
		t.Errorf("ComputedTDEE = %d, want 2082", *p.ComputedTDEE)
	}

	empty := &profile{}
	populateComputedTDEE(empty, testToday)
	if empty.ComputedBMR != nil || empty.ComputedTDEE != nil {
		t.Error("expected computed fields to stay nil without body fields")
	}
}
