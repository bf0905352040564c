package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/models/dtos"
	gormModels "taskbounty/portal/internal/models/gorm"
)

// SQLSessionStore keeps sessions in the portal_sessions table.
type SQLSessionStore struct {
	db      *gorm.DB
	ttl     time.Duration
	metrics *metrics.MetricsRegistry
}

var _ SessionStore = (*SQLSessionStore)(nil)

func NewSQLSessionStore(db *gorm.DB, ttl time.Duration, m *metrics.MetricsRegistry) *SQLSessionStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SQLSessionStore{db: db, ttl: ttl, metrics: m}
}

// Migrate creates or updates the sessions table.
func (s *SQLSessionStore) Migrate() error {
	return s.db.AutoMigrate(&gormModels.Session{})
}

func (s *SQLSessionStore) Create(ctx context.Context) (*auth.Session, error) {
	sess := newSession(s.ttl)
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLSessionStore) Get(ctx context.Context, sessionID string) (*auth.Session, error) {
	var row gormModels.Session
	err := s.db.WithContext(ctx).Where("id = ?", sessionID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.SessionLookup("miss")
			return nil, ErrSessionNotFound
		}
		s.metrics.SessionLookup("error")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess, err := fromRow(row)
	if err != nil {
		s.metrics.SessionLookup("error")
		return nil, err
	}
	if sess.Expired(time.Now()) {
		s.metrics.SessionLookup("expired")
		_ = s.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	s.metrics.SessionLookup("hit")
	return sess, nil
}

// Save upserts the session row.
func (s *SQLSessionStore) Save(ctx context.Context, sess *auth.Session) error {
	row, err := toRow(sess)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *SQLSessionStore) Delete(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&gormModels.Session{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLSessionStore) Refresh(ctx context.Context, sessionID string) error {
	res := s.db.WithContext(ctx).Model(&gormModels.Session{}).
		Where("id = ?", sessionID).
		Update("expires_at", time.Now().Add(s.ttl))
	if res.Error != nil {
		return fmt.Errorf("failed to refresh session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	logging.Debug("Session refreshed", "session_id", sessionID)
	return nil
}

func toRow(sess *auth.Session) (gormModels.Session, error) {
	flashes := ""
	if len(sess.Flashes) > 0 {
		data, err := json.Marshal(sess.Flashes)
		if err != nil {
			return gormModels.Session{}, fmt.Errorf("failed to marshal flashes: %w", err)
		}
		flashes = string(data)
	}
	return gormModels.Session{
		ID:                  sess.ID,
		Token:               sess.Token,
		UserID:              sess.UserID,
		Role:                sess.Role,
		SubscriptionID:      sess.Subscription.SubscriptionID,
		SubscriptionActive:  sess.Subscription.IsActive,
		SubscriptionEndDate: sess.Subscription.EndDate,
		Flashes:             flashes,
		CreatedAt:           sess.CreatedAt,
		ExpiresAt:           sess.ExpiresAt,
	}, nil
}

func fromRow(row gormModels.Session) (*auth.Session, error) {
	sess := &auth.Session{
		ID:     row.ID,
		Token:  row.Token,
		UserID: row.UserID,
		Role:   row.Role,
		Subscription: dtos.Subscription{
			IsActive:       row.SubscriptionActive,
			EndDate:        row.SubscriptionEndDate,
			SubscriptionID: row.SubscriptionID,
		},
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}
	if row.Flashes != "" {
		if err := json.Unmarshal([]byte(row.Flashes), &sess.Flashes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal flashes: %w", err)
		}
	}
	return sess, nil
}
