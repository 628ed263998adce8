package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

var validSexes = map[string]bool{"male": true, "female": true}

// getProfile returns the authenticated user's profile. Computed BMR/TDEE
// fields are populated when all body fields are present.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := loadProfile(c, h.db, userID, false)
	if err != nil {
		writeEngineError(c, "getProfile", err)
		return
	}
	populateComputedTDEE(p, h.today())

	c.JSON(http.StatusOK, p)
}

// validateProfilePatch checks every provided field before anything is written.
func validateProfilePatch(body patchProfileRequest) error {
	if err := validateGoalSettings(body.Goal, body.WeeklyGoalRate); err != nil {
		return err
	}
	if body.ActivityLevel != nil {
		if _, ok := activityMultipliers[*body.ActivityLevel]; !ok {
			return fmt.Errorf("%w: activity_level must be one of: sedentary, light, moderate, active, very_active", ErrInvalidInput)
		}
	}
	if body.Sex != nil && !validSexes[*body.Sex] {
		return fmt.Errorf("%w: sex must be male or female", ErrInvalidInput)
	}
	if body.DateOfBirth != nil {
		if _, err := parseDate(*body.DateOfBirth); err != nil {
			return fmt.Errorf("%w: invalid date_of_birth, expected YYYY-MM-DD", ErrInvalidInput)
		}
	}
	if body.HeightCM != nil && (*body.HeightCM <= 0 || *body.HeightCM > 300) {
		return fmt.Errorf("%w: height_cm must be between 0 and 300", ErrInvalidInput)
	}
	if body.WeightLBS != nil && (*body.WeightLBS <= 0 || *body.WeightLBS > 9999.9) {
		return fmt.Errorf("%w: weight_lbs must be between 0 and 9999.9", ErrInvalidInput)
	}
	if body.SkipBaseline != nil && !*body.SkipBaseline {
		return fmt.Errorf("%w: skip_baseline can only be set to true", ErrInvalidInput)
	}
	return nil
}

// patchProfile updates only the provided profile fields.
// PATCH /api/profile. Uses pointer fields in the request body to distinguish
// "not provided" from zero. skip_baseline=true (only before any baseline has
// started) adopts the fallback estimate as the baseline average so weekly
// budgets can open without an observation window.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateProfilePatch(body); err != nil {
		writeEngineError(c, "patchProfile", err)
		return
	}

	// Build SET clause dynamically; only update fields the client actually sent
	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}

	if body.Goal != nil {
		setClauses = append(setClauses, "goal = @goal")
		args["goal"] = *body.Goal
	}
	if body.WeeklyGoalRate != nil {
		setClauses = append(setClauses, "weekly_goal_rate = @weeklyGoalRate")
		args["weeklyGoalRate"] = *body.WeeklyGoalRate
	}
	if body.ActivityLevel != nil {
		setClauses = append(setClauses, "activity_level = @activityLevel")
		args["activityLevel"] = *body.ActivityLevel
	}
	if body.Sex != nil {
		setClauses = append(setClauses, "sex = @sex")
		args["sex"] = *body.Sex
	}
	if body.DateOfBirth != nil {
		setClauses = append(setClauses, "date_of_birth = @dateOfBirth")
		args["dateOfBirth"] = *body.DateOfBirth
	}
	if body.HeightCM != nil {
		setClauses = append(setClauses, "height_cm = @heightCM")
		args["heightCM"] = *body.HeightCM
	}
	if body.WeightLBS != nil {
		setClauses = append(setClauses, "weight_lbs = @weightLBS")
		args["weightLBS"] = *body.WeightLBS
	}

	if len(setClauses) == 0 && body.SkipBaseline == nil {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	var out *profile
	err := h.withUserTx(c, userID, func(tx pgx.Tx, p *profile) error {
		if len(setClauses) > 0 {
			query := "UPDATE profiles SET " +
				strings.Join(setClauses, ", ") +
				", updated_at = now() WHERE user_id = @userID RETURNING *"
			updated, err := queryOne[profile](tx, c, query, args)
			if err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
			p = &updated
		}

		if body.SkipBaseline != nil {
			next, err := transitionBaseline(baselineFromProfile(*p), cmdSkip, today, 0, h.cfg)
			if err != nil {
				return err
			}
			applyBaselineToProfile(p, next)
			avg := float64(fallbackDailyEstimate(p, today, h.cfg))
			p.BaselineAverageDaily = &avg
			p.BaselineLoggedDays = 0
			if err := saveEngineState(c, tx, p); err != nil {
				return err
			}
			if _, err := openDuePeriods(c, tx, p, today, today, h.cfg); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		writeEngineError(c, "patchProfile", err)
		return
	}

	populateComputedTDEE(out, today)

	c.JSON(http.StatusOK, out)
}

// getStreak returns the logging streak as of today.
// GET /api/streak.
func (h *Handler) getStreak(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := loadProfile(c, h.db, userID, false)
	if err != nil {
		writeEngineError(c, "getStreak", err)
		return
	}

	c.JSON(http.StatusOK, describeStreak(*p, h.today()))
}
