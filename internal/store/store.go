package store

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/metrics"
)

// Store groups the domain containers of one session.
type Store struct {
	Users        *Users
	Categories   *Categories
	Tasks        *Tasks
	Bids         *Bids
	Subscription *Subscription
	Leaderboard  *Leaderboard
}

func New(api Backend, m *metrics.MetricsRegistry) *Store {
	return &Store{
		Users:        newUsers(api, m),
		Categories:   newCategories(api, m),
		Tasks:        newTasks(api, m),
		Bids:         newBids(api, m),
		Subscription: newSubscription(api, m),
		Leaderboard:  newLeaderboard(api, m),
	}
}

// Reset supersedes every in-flight operation and clears all containers.
func (s *Store) Reset() {
	s.Users.Clear()
	s.Categories.Clear()
	s.Tasks.Clear()
	s.Bids.Clear()
	s.Subscription.Clear()
	s.Leaderboard.Clear()
}

// Registry keeps one Store per session id. Stores idle for longer than the
// configured window are evicted and rebuilt from the backend on next use.
type Registry struct {
	api     Backend
	metrics *metrics.MetricsRegistry
	idle    time.Duration
	cache   *cache.Cache
	mu      sync.Mutex
}

func NewRegistry(api Backend, m *metrics.MetricsRegistry, idle, cleanup time.Duration) *Registry {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	if cleanup <= 0 {
		cleanup = idle
	}
	r := &Registry{
		api:     api,
		metrics: m,
		idle:    idle,
		cache:   cache.New(idle, cleanup),
	}
	r.cache.OnEvicted(func(key string, v interface{}) {
		if st, ok := v.(*Store); ok {
			st.Reset()
		}
		if m != nil {
			m.ActiveStores.Dec()
		}
		logging.Debug("Session store evicted", "key", key)
	})
	return r
}

func storeKey(sessionID string) string {
	return string(constants.CachePrefixSessionStore) + sessionID
}

// For returns the session's store, creating it on first use. Every access
// extends the idle window.
func (r *Registry) For(sessionID string) *Store {
	key := storeKey(sessionID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, found := r.cache.Get(key); found {
		st := v.(*Store)
		r.cache.Set(key, st, r.idle)
		return st
	}

	st := New(r.api, r.metrics)
	r.cache.Set(key, st, r.idle)
	if r.metrics != nil {
		r.metrics.ActiveStores.Inc()
	}
	return st
}

// Ephemeral returns a store that is not kept, for visitors without a session.
func (r *Registry) Ephemeral() *Store {
	return New(r.api, r.metrics)
}

// Drop discards the session's store, as on logout.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(storeKey(sessionID))
}

func (r *Registry) Len() int {
	return r.cache.ItemCount()
}
