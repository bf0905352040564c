package store

import (
	"context"

	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/models/dtos"
)

type LeaderboardState struct {
	Loading bool
	Error   string
	Entries []dtos.LeaderboardEntry
}

type Leaderboard struct {
	base
	api Backend

	entries []dtos.LeaderboardEntry
}

func newLeaderboard(api Backend, m *metrics.MetricsRegistry) *Leaderboard {
	return &Leaderboard{base: newBase("leaderboard", m), api: api}
}

func (l *Leaderboard) Snapshot() LeaderboardState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	loading, errMsg := l.status()
	return LeaderboardState{Loading: loading, Error: errMsg, Entries: l.entries}
}

func (l *Leaderboard) Fetch(ctx context.Context) Outcome {
	_, out := dispatch(ctx, &l.base, "fetch", "fetch", func(c context.Context) ([]dtos.LeaderboardEntry, error) {
		return l.api.Leaderboard(c)
	}, func(entries []dtos.LeaderboardEntry) {
		l.entries = entries
	})
	return out
}

func (l *Leaderboard) Clear() {
	l.ops.abandon()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.err = ""
}
