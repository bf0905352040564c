package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/metrics"
	gormModels "taskbounty/portal/internal/models/gorm"
)

// SessionSweeper deletes expired rows from the SQL session table. Expired
// sessions are already rejected on read; this only reclaims space.
type SessionSweeper struct {
	db      *sqlx.DB
	metrics *metrics.MetricsRegistry
	now     func() time.Time
}

func NewSessionSweeper(db *sqlx.DB, m *metrics.MetricsRegistry) *SessionSweeper {
	return &SessionSweeper{db: db, metrics: m, now: time.Now}
}

// Run deletes every session that expired before now and returns how many went.
func (s *SessionSweeper) Run(ctx context.Context) (int64, error) {
	query := s.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", gormModels.Session{}.TableName()))
	res, err := s.db.ExecContext(ctx, query, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept sessions: %w", err)
	}
	if n > 0 && s.metrics != nil {
		s.metrics.SessionsSwept.Add(float64(n))
	}
	return n, nil
}

// RunScheduled sweeps once at start and then every interval until ctx ends.
func (s *SessionSweeper) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			logging.Info("Session sweeper shutting down")
			return
		}
	}
}

func (s *SessionSweeper) runOnce(ctx context.Context) {
	n, err := s.Run(ctx)
	if err != nil {
		logging.Error("Session sweep failed", "error", err)
		return
	}
	if n > 0 {
		logging.Info("Expired sessions swept", "removed", n)
	}
}
