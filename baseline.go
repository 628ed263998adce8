package main

import (
	"fmt"
	"time"
)

// baselineState is the lifecycle of a user's observation window.
type baselineState string

const (
	baselineNotStarted       baselineState = "not_started"
	baselineActive           baselineState = "active"
	baselineExtended         baselineState = "extended"
	baselineAwaitingDecision baselineState = "awaiting_decision"
	baselineCompleted        baselineState = "completed"
	baselineSkipped          baselineState = "skipped"
)

// baselineCommand is a user decision applied through transitionBaseline.
type baselineCommand string

const (
	cmdStart    baselineCommand = "start"
	cmdExtend   baselineCommand = "extend"
	cmdComplete baselineCommand = "complete"
	cmdRestart  baselineCommand = "restart"
	cmdSkip     baselineCommand = "skip"
)

// baselineWindow is the baseline portion of a profile.
type baselineWindow struct {
	StartDate  *time.Time
	EndDate    *time.Time
	DaysTarget int
	Extended   bool
	Complete   bool
	Skipped    bool
}

func baselineFromProfile(p profile) baselineWindow {
	return baselineWindow{
		StartDate:  datePtr(p.BaselineStartDate),
		EndDate:    datePtr(p.BaselineEndDate),
		DaysTarget: p.BaselineDaysTarget,
		Extended:   p.BaselineExtended,
		Complete:   p.BaselineComplete,
		Skipped:    p.BaselineSkipped,
	}
}

// state derives the lifecycle state on the given day. The day count rolls
// over lazily here; nothing is persisted when a window reaches its target.
func (b baselineWindow) state(today time.Time) baselineState {
	switch {
	case b.Complete:
		return baselineCompleted
	case b.Skipped:
		return baselineSkipped
	case b.StartDate == nil:
		return baselineNotStarted
	case daysBetween(*b.StartDate, today) >= b.DaysTarget:
		return baselineAwaitingDecision
	case b.Extended:
		return baselineExtended
	}
	return baselineActive
}

// dayNumber is the 1-based day of the open window, 0 when none is open.
func (b baselineWindow) dayNumber(today time.Time) int {
	if b.StartDate == nil || b.Complete || b.Skipped {
		return 0
	}
	return daysBetween(*b.StartDate, today) + 1
}

// open reports whether a window is currently accepting observation days.
func (b baselineWindow) open() bool {
	return b.StartDate != nil && !b.Complete && !b.Skipped
}

// transitionBaseline applies cmd to b. loggedDays is the number of logged
// days in [start, today]; it only matters for restart. A rejected command
// returns b unchanged alongside the error.
//
// complete on an already-completed window is accepted and returns it as-is,
// so callers must check the prior state before seeding a period.
func transitionBaseline(b baselineWindow, cmd baselineCommand, today time.Time, loggedDays int, cfg engineConfig) (baselineWindow, error) {
	today = dayOf(today)
	st := b.state(today)

	switch cmd {
	case cmdStart:
		if st != baselineNotStarted && st != baselineCompleted && st != baselineSkipped {
			return b, ErrBaselineInProgress
		}
		return baselineWindow{StartDate: &today, DaysTarget: cfg.BaselineDays}, nil

	case cmdExtend:
		if b.Extended && b.open() {
			return b, ErrAlreadyExtended
		}
		if st != baselineAwaitingDecision {
			return b, fmt.Errorf("%w: extend from %s", ErrInvalidTransition, st)
		}
		next := b
		next.Extended = true
		next.DaysTarget = cfg.BaselineExtendedDays
		return next, nil

	case cmdComplete:
		switch st {
		case baselineCompleted:
			return b, nil
		case baselineAwaitingDecision, baselineExtended:
			next := b
			next.Complete = true
			next.EndDate = &today
			return next, nil
		}
		return b, fmt.Errorf("%w: complete from %s", ErrInvalidTransition, st)

	case cmdRestart:
		if st != baselineActive && st != baselineExtended && st != baselineAwaitingDecision {
			return b, fmt.Errorf("%w: restart from %s", ErrInvalidTransition, st)
		}
		if loggedDays >= cfg.LowConfidenceDays {
			return b, ErrRestartNotAllowed
		}
		return baselineWindow{StartDate: &today, DaysTarget: cfg.BaselineDays}, nil

	case cmdSkip:
		if st != baselineNotStarted {
			return b, fmt.Errorf("%w: skip from %s", ErrInvalidTransition, st)
		}
		next := b
		next.Skipped = true
		return next, nil
	}
	return b, fmt.Errorf("%w: unknown baseline command %q", ErrInvalidInput, cmd)
}

// baselineResult is what completion hands to the budget calculator.
type baselineResult struct {
	AverageDaily  float64  `json:"baseline_average_daily"`
	LoggedDays    int      `json:"logged_days"`
	LowConfidence bool     `json:"low_confidence"`
	Warnings      []string `json:"warnings"`
}

// summarizeBaseline averages the logged days in [start, end]. Unlogged days
// are excluded rather than counted as zero. With no logged days at all the
// fallback estimate stands in for the average.
func summarizeBaseline(start, end time.Time, summaries []dailySummary, fallbackDaily int, cfg engineConfig) baselineResult {
	start, end = dayOf(start), dayOf(end)
	var total, logged int
	for _, s := range summaries {
		d := dayOf(s.Date.Time)
		if !s.IsLogged || d.Before(start) || d.After(end) {
			continue
		}
		total += s.CaloriesConsumed
		logged++
	}

	res := baselineResult{LoggedDays: logged, Warnings: []string{}}
	if logged > 0 {
		res.AverageDaily = float64(total) / float64(logged)
	} else {
		res.AverageDaily = float64(fallbackDaily)
	}
	if logged < cfg.LowConfidenceDays {
		res.LowConfidence = true
		res.Warnings = append(res.Warnings, warnLowConfidenceBaseline)
	}
	return res
}

// countLoggedDays counts logged summaries within [start, end].
func countLoggedDays(start, end time.Time, summaries []dailySummary) int {
	start, end = dayOf(start), dayOf(end)
	n := 0
	for _, s := range summaries {
		d := dayOf(s.Date.Time)
		if s.IsLogged && !d.Before(start) && !d.After(end) {
			n++
		}
	}
	return n
}

// applyBaselineToProfile writes b back into the profile's baseline columns.
func applyBaselineToProfile(p *profile, b baselineWindow) {
	p.BaselineStartDate = nil
	if b.StartDate != nil {
		p.BaselineStartDate = &DateOnly{*b.StartDate}
	}
	p.BaselineEndDate = nil
	if b.EndDate != nil {
		p.BaselineEndDate = &DateOnly{*b.EndDate}
	}
	p.BaselineDaysTarget = b.DaysTarget
	p.BaselineExtended = b.Extended
	p.BaselineComplete = b.Complete
	p.BaselineSkipped = b.Skipped
}

// baselineStatus is the response shape for GET /api/baseline.
type baselineStatus struct {
	State                baselineState `json:"state"`
	StartDate            *DateOnly     `json:"start_date"`
	EndDate              *DateOnly     `json:"end_date"`
	DaysTarget           int           `json:"days_target"`
	DayNumber            int           `json:"day_number"`
	Extended             bool          `json:"extended"`
	LoggedDays           int           `json:"logged_days"`
	CanExtend            bool          `json:"can_extend"`
	CanComplete          bool          `json:"can_complete"`
	CanRestart           bool          `json:"can_restart"`
	BaselineAverageDaily *float64      `json:"baseline_average_daily"`
}

// describeBaseline reports state plus which decisions are currently legal.
func describeBaseline(p profile, loggedDays int, today time.Time, cfg engineConfig) baselineStatus {
	b := baselineFromProfile(p)
	st := b.state(today)
	return baselineStatus{
		State:                st,
		StartDate:            p.BaselineStartDate,
		EndDate:              p.BaselineEndDate,
		DaysTarget:           b.DaysTarget,
		DayNumber:            b.dayNumber(today),
		Extended:             b.Extended,
		LoggedDays:           loggedDays,
		CanExtend:            st == baselineAwaitingDecision && !b.Extended,
		CanComplete:          st == baselineAwaitingDecision || st == baselineExtended,
		CanRestart:           b.open() && loggedDays < cfg.LowConfidenceDays,
		BaselineAverageDaily: p.BaselineAverageDaily,
	}
}
