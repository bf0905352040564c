package store

import (
	"context"
	"time"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/models/dtos"
)

type SubscriptionState struct {
	Loading bool
	Error   string
	Data    dtos.Subscription
}

// Subscription mirrors the poster's entitlement.
type Subscription struct {
	base
	api Backend

	data dtos.Subscription
}

func newSubscription(api Backend, m *metrics.MetricsRegistry) *Subscription {
	return &Subscription{base: newBase("subscription", m), api: api}
}

func (s *Subscription) Snapshot() SubscriptionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loading, errMsg := s.status()
	return SubscriptionState{Loading: loading, Error: errMsg, Data: s.data}
}

// Seed restores the snapshot persisted in the session.
func (s *Subscription) Seed(sub dtos.Subscription) {
	s.mu.Lock()
	s.data = sub
	s.mu.Unlock()
}

func (s *Subscription) CreateOrder(ctx context.Context, token string, plan constants.PlanType) (*dtos.Order, Outcome) {
	return dispatch(ctx, &s.base, "create_order", "order", func(c context.Context) (*dtos.Order, error) {
		return s.api.CreateSubscriptionOrder(c, token, plan)
	}, nil)
}

// Verify forwards the checkout proof and records the new entitlement.
func (s *Subscription) Verify(ctx context.Context, token string, proof dtos.PaymentProof, plan constants.PlanType) (dtos.Subscription, Outcome) {
	_, out := dispatch(ctx, &s.base, "verify", "verify", func(c context.Context) (*dtos.SubscriptionVerifyResponse, error) {
		return s.api.VerifySubscription(c, token, proof, plan)
	}, func(res *dtos.SubscriptionVerifyResponse) {
		next := dtos.Subscription{IsActive: true}
		if res != nil {
			next.SubscriptionID = res.SubscriptionID
			next.EndDate = res.EndDate
		}
		s.data = next
	})
	if !out.OK() {
		return dtos.Subscription{}, out
	}
	return s.Snapshot().Data, out
}

func (s *Subscription) FetchStatus(ctx context.Context, token string) Outcome {
	_, out := dispatch(ctx, &s.base, "fetch", "fetch", func(c context.Context) (*dtos.Subscription, error) {
		return s.api.SubscriptionStatus(c, token)
	}, func(sub *dtos.Subscription) {
		if sub != nil {
			s.data = *sub
		}
	})
	return out
}

// Active reports whether the entitlement is active at now.
func (s SubscriptionState) Active(now time.Time) bool {
	if !s.Data.IsActive {
		return false
	}
	return s.Data.EndDate == nil || s.Data.EndDate.After(now)
}

func (s *Subscription) Clear() {
	s.ops.abandon()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = dtos.Subscription{}
	s.err = ""
}
