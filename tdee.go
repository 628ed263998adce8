package main

import (
	"math"
	"time"
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// This is the single source of truth for valid activity levels, also used for
// input validation in patchProfile.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// computeTDEE computes BMR (Mifflin-St Jeor) and TDEE from the profile's body
// fields as of today. Returns ok=false when any required field is nil or the
// age is implausible.
func computeTDEE(p *profile, today time.Time) (bmr, tdee int, ok bool) {
	if p.Sex == nil || p.DateOfBirth == nil || p.HeightCM == nil ||
		p.WeightLBS == nil || p.ActivityLevel == nil {
		return 0, 0, false
	}

	// Age derived from date of birth
	age := today.Year() - p.DateOfBirth.Year()
	if today.Before(p.DateOfBirth.AddDate(age, 0, 0)) {
		age--
	}
	// Guard against implausible ages (e.g. DOB in the future, or over 130 years ago)
	if age < 0 || age > 130 {
		return 0, 0, false
	}

	// BMR via Mifflin-St Jeor: different constant for male vs female
	weightKG := *p.WeightLBS / 2.20462
	bmrF := 10*weightKG + 6.25**p.HeightCM - 5*float64(age)
	if *p.Sex == "male" {
		bmrF += 5
	} else {
		bmrF -= 161
	}

	mult, found := activityMultipliers[*p.ActivityLevel]
	if !found {
		return 0, 0, false
	}
	return int(math.Round(bmrF)), int(math.Round(bmrF * mult)), true
}

// fallbackDailyEstimate is the daily intake assumed when there is no
// completed baseline: the profile's TDEE when computable, else the
// configured default.
func fallbackDailyEstimate(p *profile, today time.Time, cfg engineConfig) int {
	if p != nil {
		if _, tdee, ok := computeTDEE(p, today); ok {
			return tdee
		}
	}
	return cfg.DefaultDailyCalories
}

// populateComputedTDEE fills the computed-only fields on p from the body fields.
// No-ops if any required field is missing.
func populateComputedTDEE(p *profile, today time.Time) {
	if bmr, tdee, ok := computeTDEE(p, today); ok {
		p.ComputedBMR = &bmr
		p.ComputedTDEE = &tdee
	}
}
