package jobs

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"taskbounty/portal/internal/metrics"
)

// InitializeJobs starts the background jobs and returns the sweeper so
// callers can trigger a run by hand.
func InitializeJobs(ctx context.Context, db *sqlx.DB, m *metrics.MetricsRegistry, sweepInterval time.Duration) *SessionSweeper {
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	sweeper := NewSessionSweeper(db, m)
	go sweeper.RunScheduled(ctx, sweepInterval)
	return sweeper
}
