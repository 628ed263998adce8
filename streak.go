package main

import "time"

// streakState is the streak portion of a profile.
type streakState struct {
	Current      int
	Longest      int
	LastActivity *time.Time
}

func streakFromProfile(p profile) streakState {
	return streakState{
		Current:      p.CurrentStreak,
		Longest:      p.LongestStreak,
		LastActivity: datePtr(p.LastActivityDate),
	}
}

func applyStreakToProfile(p *profile, s streakState) {
	p.CurrentStreak = s.Current
	p.LongestStreak = s.Longest
	p.LastActivityDate = nil
	if s.LastActivity != nil {
		p.LastActivityDate = &DateOnly{*s.LastActivity}
	}
}

// recordLoggedDay advances the streak when date d moves from not-logged to
// logged. Evaluation only runs forward: a backfilled day before the last
// activity leaves the streak alone, so an old gap is never repaired.
func (s streakState) recordLoggedDay(d time.Time) streakState {
	d = dayOf(d)
	if s.LastActivity == nil {
		s.Current = 1
	} else {
		switch gap := daysBetween(*s.LastActivity, d); {
		case gap <= 0:
			return s
		case gap == 1:
			s.Current++
		default:
			s.Current = 1
		}
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActivity = &d
	return s
}

// currentAsOf is the streak as shown on the given day. Once a whole day has
// gone by without logging the stored count is stale and reads as zero.
func (s streakState) currentAsOf(today time.Time) int {
	if s.LastActivity == nil || daysBetween(*s.LastActivity, today) > 1 {
		return 0
	}
	return s.Current
}

// streakResponse is the response shape for GET /api/streak.
type streakResponse struct {
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	LastActivityDate *DateOnly `json:"last_activity_date"`
}

func describeStreak(p profile, today time.Time) streakResponse {
	s := streakFromProfile(p)
	return streakResponse{
		CurrentStreak:    s.currentAsOf(today),
		LongestStreak:    s.Longest,
		LastActivityDate: p.LastActivityDate,
	}
}
