package store

import (
	"context"
	"sync"

	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/providers"
)

// OutcomeStatus tells a caller how a dispatched operation settled.
type OutcomeStatus string

const (
	Fulfilled  OutcomeStatus = "fulfilled"
	Rejected   OutcomeStatus = "rejected"
	Superseded OutcomeStatus = "superseded"
)

// Outcome is returned by every container operation. A superseded outcome means
// a newer dispatch of the same operation won and state was left untouched.
type Outcome struct {
	Status  OutcomeStatus
	Message string
	Err     error
}

func (o Outcome) OK() bool { return o.Status == Fulfilled }

func (o Outcome) Superseded() bool { return o.Status == Superseded }

func fulfilled() Outcome { return Outcome{Status: Fulfilled} }

func rejected(err error) Outcome {
	return Outcome{Status: Rejected, Message: providers.Message(err), Err: err}
}

// tracker hands out per-operation sequence numbers. Beginning an operation
// cancels the in-flight one under the same key.
type tracker struct {
	mu      sync.Mutex
	seq     map[string]uint64
	cancels map[string]context.CancelFunc
}

func newTracker() *tracker {
	return &tracker{
		seq:     make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
	}
}

func (t *tracker) begin(parent context.Context, key string) (context.Context, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cancel, ok := t.cancels[key]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	t.seq[key]++
	t.cancels[key] = cancel
	return ctx, t.seq[key]
}

// finish reports whether seq is still the latest dispatch for key.
func (t *tracker) finish(key string, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seq[key] != seq {
		return false
	}
	if cancel, ok := t.cancels[key]; ok {
		cancel()
		delete(t.cancels, key)
	}
	return true
}

// abandon supersedes everything in flight.
func (t *tracker) abandon() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, cancel := range t.cancels {
		cancel()
		t.seq[key]++
	}
	t.cancels = make(map[string]context.CancelFunc)
}

// base carries the loading and error fields every container exposes.
type base struct {
	name    string
	mu      sync.RWMutex
	pending int
	err     string
	ops     *tracker
	metrics *metrics.MetricsRegistry
}

func newBase(name string, m *metrics.MetricsRegistry) base {
	return base{name: name, ops: newTracker(), metrics: m}
}

// status must be called with mu held.
func (b *base) status() (bool, string) {
	return b.pending > 0, b.err
}

// dispatch runs call under a fresh per-key context. While pending the container
// reports loading and its error is cleared. On settle the latest dispatch
// either records the failure message or applies reduce; older dispatches are
// reported as superseded and change nothing.
func dispatch[T any](ctx context.Context, b *base, op, key string, call func(context.Context) (T, error), reduce func(T)) (T, Outcome) {
	opCtx, seq := b.ops.begin(ctx, key)

	b.mu.Lock()
	b.pending++
	b.err = ""
	b.mu.Unlock()

	v, err := call(opCtx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending--

	if !b.ops.finish(key, seq) {
		logging.Debug("Dispatch superseded", "container", b.name, "operation", op, "key", key)
		b.metrics.ObserveOutcome(b.name, op, string(Superseded))
		var zero T
		return zero, Outcome{Status: Superseded}
	}

	if err != nil {
		out := rejected(err)
		b.err = out.Message
		logging.Warn("Dispatch rejected", "container", b.name, "operation", op, "error", err)
		b.metrics.ObserveOutcome(b.name, op, string(Rejected))
		return v, out
	}

	if reduce != nil {
		reduce(v)
	}
	b.metrics.ObserveOutcome(b.name, op, string(Fulfilled))
	return v, fulfilled()
}

// dispatchErr adapts calls that only return an error.
func dispatchErr(ctx context.Context, b *base, op, key string, call func(context.Context) error, reduce func()) Outcome {
	_, out := dispatch(ctx, b, op, key, func(c context.Context) (struct{}, error) {
		return struct{}{}, call(c)
	}, func(struct{}) {
		if reduce != nil {
			reduce()
		}
	})
	return out
}

// The list helpers never modify their input so snapshots stay stable.

func appendUnique[T any](items []T, item T, id func(T) string) []T {
	out := make([]T, 0, len(items)+1)
	for _, it := range items {
		if id(it) != id(item) {
			out = append(out, it)
		}
	}
	return append(out, item)
}

func replaceByID[T any](items []T, item T, id func(T) string) []T {
	out := make([]T, len(items))
	for i, it := range items {
		if id(it) == id(item) {
			out[i] = item
			continue
		}
		out[i] = it
	}
	return out
}

func removeByID[T any](items []T, target string, id func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if id(it) != target {
			out = append(out, it)
		}
	}
	return out
}
