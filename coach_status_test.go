package main

import "testing"

func TestClassifyClient(t *testing.T) {
	cfg := defaultEngineConfig()
	today := day("2026-10-16")
	recent := DateOnly{day("2026-10-15")}
	stale := DateOnly{day("2026-10-13")}

	inBaseline := profile{LastActivityDate: &recent}
	complete := profile{BaselineComplete: true, LastActivityDate: &recent}
	skipped := profile{BaselineSkipped: true, LastActivityDate: &recent}
	inactive := profile{BaselineComplete: true, LastActivityDate: &stale}
	neverLogged := profile{BaselineComplete: true}

	good := &weeklyMetrics{BalanceScore: 88, DaysElapsed: 5}
	poor := &weeklyMetrics{BalanceScore: 42.5, DaysElapsed: 5}
	notStarted := &weeklyMetrics{BalanceScore: 0, DaysElapsed: 0}

	cases := []struct {
		name   string
		p      profile
		latest *weeklyMetrics
		want   clientStatus
	}{
		{"baseline running", inBaseline, nil, statusInBaseline},
		{"on track", complete, good, statusOnTrack},
		{"skipped baseline on track", skipped, good, statusOnTrack},
		{"no period yet", complete, nil, statusOnTrack},
		{"low balance", complete, poor, statusNeedFollowup},
		{"week not started", complete, notStarted, statusOnTrack},
		{"inactive three days", inactive, good, statusNeedFollowup},
		{"never logged", neverLogged, good, statusNeedFollowup},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyClient(tc.p, tc.latest, today, cfg); got != tc.want {
				t.Errorf("status = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyClient_Thresholds(t *testing.T) {
	cfg := defaultEngineConfig()
	today := day("2026-10-16")
	twoDaysAgo := DateOnly{day("2026-10-14")}
	p := profile{BaselineComplete: true, LastActivityDate: &twoDaysAgo}

	if got := classifyClient(p, &weeklyMetrics{BalanceScore: 60, DaysElapsed: 3}, today, cfg); got != statusOnTrack {
		t.Errorf("at both thresholds: got %s, want on_track", got)
	}

	cfg.FollowupInactiveDays = 1
	if got := classifyClient(p, nil, today, cfg); got != statusNeedFollowup {
		t.Errorf("stricter inactivity: got %s, want need_followup", got)
	}
}
