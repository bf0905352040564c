package store

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/models/dtos"
)

// fanOutLimit caps concurrent bid-list requests per page.
const fanOutLimit = 8

type BidsState struct {
	Loading bool
	Error   string
	ByTask  map[string][]dtos.Bid
	EditID  string
}

// For returns the bids held for taskID.
func (s BidsState) For(taskID string) []dtos.Bid {
	return s.ByTask[taskID]
}

// Editing returns the bid under the edit cursor on taskID, if any.
func (s BidsState) Editing(taskID string) *dtos.Bid {
	if s.EditID == "" {
		return nil
	}
	for _, b := range s.ByTask[taskID] {
		if b.ID == s.EditID {
			bid := b
			return &bid
		}
	}
	return nil
}

type Bids struct {
	base
	api Backend

	byTask map[string][]dtos.Bid
	editID string
}

func newBids(api Backend, m *metrics.MetricsRegistry) *Bids {
	return &Bids{base: newBase("bids", m), api: api, byTask: map[string][]dtos.Bid{}}
}

func bidID(b dtos.Bid) string { return b.ID }

func (b *Bids) Snapshot() BidsState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	loading, errMsg := b.status()
	return BidsState{Loading: loading, Error: errMsg, ByTask: b.byTask, EditID: b.editID}
}

// setTask swaps in a new map so handed-out snapshots never change.
// Must be called with mu held.
func (b *Bids) setTask(taskID string, bids []dtos.Bid) {
	next := make(map[string][]dtos.Bid, len(b.byTask)+1)
	for k, v := range b.byTask {
		next[k] = v
	}
	next[taskID] = bids
	b.byTask = next
}

func (b *Bids) Fetch(ctx context.Context, token, taskID string) Outcome {
	_, out := dispatch(ctx, &b.base, "fetch", "fetch:"+taskID, func(c context.Context) ([]dtos.Bid, error) {
		return b.api.BidsForTask(c, token, taskID)
	}, func(bids []dtos.Bid) {
		b.setTask(taskID, bids)
	})
	return out
}

func (b *Bids) Place(ctx context.Context, token, taskID string, req dtos.BidRequest) Outcome {
	_, out := dispatch(ctx, &b.base, "place", "place:"+taskID, func(c context.Context) (*dtos.Bid, error) {
		return b.api.PlaceBid(c, token, taskID, req)
	}, func(bid *dtos.Bid) {
		if bid != nil && bid.ID != "" {
			b.setTask(taskID, appendUnique(b.byTask[taskID], *bid, bidID))
		}
	})
	return out
}

// Update edits the bidder's own bid and leaves edit mode.
func (b *Bids) Update(ctx context.Context, token, taskID, id string, req dtos.BidRequest) Outcome {
	_, out := dispatch(ctx, &b.base, "update", "update:"+id, func(c context.Context) (*dtos.Bid, error) {
		return b.api.UpdateBid(c, token, id, req)
	}, func(bid *dtos.Bid) {
		if bid != nil && bid.ID == id {
			b.setTask(taskID, replaceByID(b.byTask[taskID], *bid, bidID))
		}
		b.editID = ""
	})
	return out
}

// refresh reloads a task's bids after a successful mutation. A failed reload
// stays in the container's error and never changes the mutation's outcome.
func (b *Bids) refresh(ctx context.Context, token, taskID string) {
	if out := b.Fetch(ctx, token, taskID); out.Status == Rejected {
		logging.Warn("Bid reload failed after mutation", "task_id", taskID, "error", out.Err)
	}
}

// Decide accepts or rejects a bid, then reloads the task's bids since the
// backend may have changed its siblings.
func (b *Bids) Decide(ctx context.Context, token, taskID, id string, status constants.BidStatus) Outcome {
	_, out := dispatch(ctx, &b.base, "decide", "decide:"+id, func(c context.Context) (*dtos.Bid, error) {
		return b.api.SetBidStatus(c, token, id, status)
	}, nil)
	if !out.OK() {
		return out
	}
	b.refresh(ctx, token, taskID)
	return out
}

// Delete removes the bid locally and then reloads the task's bids.
func (b *Bids) Delete(ctx context.Context, token, taskID, id string) Outcome {
	out := dispatchErr(ctx, &b.base, "delete", "delete:"+id, func(c context.Context) error {
		return b.api.DeleteBid(c, token, id)
	}, func() {
		b.setTask(taskID, removeByID(b.byTask[taskID], id, bidID))
		if b.editID == id {
			b.editID = ""
		}
	})
	if !out.OK() {
		return out
	}
	b.refresh(ctx, token, taskID)
	return out
}

// Lookup loads the bids of many tasks concurrently. A task whose request fails
// maps to no bids; one failure never cancels the others.
func (b *Bids) Lookup(ctx context.Context, token string, taskIDs []string) map[string][]dtos.Bid {
	result := make(map[string][]dtos.Bid, len(taskIDs))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(fanOutLimit)
	for _, id := range taskIDs {
		id := id
		g.Go(func() error {
			bids, err := b.api.BidsForTask(ctx, token, id)
			if err != nil {
				logging.Warn("Bid lookup failed, counting as zero bids", "task_id", id, "error", err)
				b.metrics.BidCountFallback()
				bids = nil
			}
			mu.Lock()
			result[id] = bids
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result
}

func (b *Bids) SetEditID(id string) {
	b.mu.Lock()
	b.editID = id
	b.mu.Unlock()
}

func (b *Bids) Clear() {
	b.ops.abandon()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byTask = map[string][]dtos.Bid{}
	b.editID = ""
	b.err = ""
}
