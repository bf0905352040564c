package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/metrics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// SessionStore persists portal sessions. Redis is the default backing,
// SQLSessionStore the alternative.
type SessionStore interface {
	Create(ctx context.Context) (*auth.Session, error)
	Get(ctx context.Context, sessionID string) (*auth.Session, error)
	Save(ctx context.Context, sess *auth.Session) error
	Delete(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, sessionID string) error
}

// newSession builds a fresh anonymous session.
func newSession(ttl time.Duration) *auth.Session {
	now := time.Now()
	return &auth.Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// SessionService manages portal sessions in Redis
type SessionService struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics *metrics.MetricsRegistry
}

var _ SessionStore = (*SessionService)(nil)

// NewSessionService creates a new session service
func NewSessionService(client *redis.Client, ttl time.Duration, m *metrics.MetricsRegistry) *SessionService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionService{redis: client, ttl: ttl, metrics: m}
}

func sessionKey(sessionID string) string {
	return string(constants.CachePrefixSession) + sessionID
}

// Create stores a new anonymous session and returns it.
func (s *SessionService) Create(ctx context.Context) (*auth.Session, error) {
	sess := newSession(s.ttl)
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	logging.Debug("Session created", "session_id", sess.ID)
	return sess, nil
}

// Get retrieves a session from Redis
func (s *SessionService) Get(ctx context.Context, sessionID string) (*auth.Session, error) {
	val, err := s.redis.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.metrics.SessionLookup("miss")
			return nil, ErrSessionNotFound
		}
		s.metrics.SessionLookup("error")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess auth.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		s.metrics.SessionLookup("error")
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if sess.Expired(time.Now()) {
		s.metrics.SessionLookup("expired")
		logging.Info("Session expired", "session_id", sessionID)
		_ = s.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	s.metrics.SessionLookup("hit")
	return &sess, nil
}

// Save writes the session back with the time it has left to live.
func (s *SessionService) Save(ctx context.Context, sess *auth.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, sess.ID)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Delete deletes a session from Redis
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Refresh extends the session expiration
func (s *SessionService) Refresh(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.ExpiresAt = time.Now().Add(s.ttl)
	return s.Save(ctx, sess)
}
