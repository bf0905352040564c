package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tasks/665f1c2ab3e4d5f6a7b8c9d0/bids", "/tasks/{id}/bids"},
		{"/wallet/balance/42", "/wallet/balance/{id}"},
		{"/bids/0b6f3f64-5717-4562-b3fc-2c963f66afa6/status", "/bids/{id}/status"},
		{"/tasks?page=2&limit=10", "/tasks"},
		{"/users/myProfile", "/users/myProfile"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEndpoint(tt.in), tt.in)
	}
}

func TestObserveBackendCall(t *testing.T) {
	m := NewMetricsRegistry(prometheus.NewRegistry())

	m.ObserveBackendCall("/tasks/665f1c2ab3e4d5f6a7b8c9d0", "GET", 200, 15*time.Millisecond)
	m.ObserveBackendCall("/tasks/665f1c2ab3e4d5f6a7b8c9d1", "GET", 200, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("/tasks/{id}", "GET", "200")))
}

func TestNilRegistryIsSafe(t *testing.T) {
	var m *MetricsRegistry
	assert.NotPanics(t, func() {
		m.ObserveBackendCall("/x", "GET", 500, time.Second)
		m.ObserveOutcome("tasks", "browse", "fulfilled")
		m.BidCountFallback()
		m.SessionLookup("hit")
	})
}
