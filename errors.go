package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Engine errors. Handlers match them with errors.Is and map them to HTTP
// status codes in writeEngineError; everything else is a 500.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrNoProfile          = errors.New("no profile")
	ErrNoActiveBaseline   = errors.New("no active baseline")
	ErrBaselineInProgress = errors.New("baseline already in progress")
	ErrInvalidTransition  = errors.New("baseline transition not allowed in current state")
	ErrAlreadyExtended    = errors.New("baseline already extended")
	ErrRestartNotAllowed  = errors.New("baseline restart not allowed with enough logged days")
	ErrInsufficientBudget = errors.New("insufficient weekly budget")
)

// Warning codes attached to successful responses.
const (
	warnLowConfidenceBaseline = "low_confidence_baseline"
	warnNoActiveBaseline      = "no_active_baseline"
	warnNoProfile             = "no_profile"
)

// errorStatus maps an engine error to its HTTP status and stable code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrNoProfile):
		return http.StatusNotFound, "no_profile"
	case errors.Is(err, ErrNoActiveBaseline):
		return http.StatusConflict, "no_active_baseline"
	case errors.Is(err, ErrBaselineInProgress):
		return http.StatusConflict, "baseline_in_progress"
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, ErrAlreadyExtended):
		return http.StatusConflict, "already_extended"
	case errors.Is(err, ErrRestartNotAllowed):
		return http.StatusConflict, "restart_not_allowed"
	case errors.Is(err, ErrInsufficientBudget):
		return http.StatusUnprocessableEntity, "insufficient_budget"
	}
	return http.StatusInternalServerError, "internal"
}

// writeEngineError writes err using the same {"error": ...} shape as apiError,
// plus a machine-readable code. Internal errors are logged and not echoed.
func writeEngineError(c *gin.Context, op string, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[%s] %v", op, err)
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message, "code": code})
}
