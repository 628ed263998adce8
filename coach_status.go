package main

import "time"

// clientStatus is the coach-facing classification of one client.
type clientStatus string

const (
	statusInBaseline   clientStatus = "in_baseline"
	statusOnTrack      clientStatus = "on_track"
	statusNeedFollowup clientStatus = "need_followup"
)

// classifyClient derives a client's status from engine output only, so the
// coach listing and the engine cannot disagree about thresholds.
// latest is the metrics row of the client's most recent started period.
func classifyClient(p profile, latest *weeklyMetrics, today time.Time, cfg engineConfig) clientStatus {
	if !p.BaselineComplete && !p.BaselineSkipped {
		return statusInBaseline
	}
	last := datePtr(p.LastActivityDate)
	if last == nil || daysBetween(*last, today) > cfg.FollowupInactiveDays {
		return statusNeedFollowup
	}
	if latest != nil && latest.DaysElapsed > 0 && latest.BalanceScore < cfg.FollowupBalanceMin {
		return statusNeedFollowup
	}
	return statusOnTrack
}
