package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/models/dtos"
	"taskbounty/portal/internal/providers"
)

// fakeBackend overrides only the calls a test needs; anything else panics
// through the nil embedded interface.
type fakeBackend struct {
	Backend

	mu    sync.Mutex
	calls []string

	categories     func(ctx context.Context) ([]dtos.Category, error)
	createCategory func(name string) (*dtos.Category, error)
	updateCategory func(id, name string) (*dtos.Category, error)
	deleteCategory func(id string) (*dtos.Category, error)
	browse         func(ctx context.Context, q dtos.TaskQuery) (*dtos.TaskPage, error)
	updateTask     func(id string, req dtos.TaskUpdateRequest) (*dtos.Task, error)
	deleteTask     func(id string) error
	bidsForTask    func(ctx context.Context, taskID string) ([]dtos.Bid, error)
	setBidStatus   func(id string, status constants.BidStatus) (*dtos.Bid, error)
	placeBid       func(taskID string, req dtos.BidRequest) (*dtos.Bid, error)
	listUsers      func() ([]dtos.User, error)
	setUserActive  func(id string, active bool) (*dtos.User, error)
	myProfile      func() (*dtos.User, error)
	withdraw       func(amount decimal.Decimal) (decimal.Decimal, error)
	createTask     func(req dtos.TaskCreateRequest) (*dtos.Task, error)
	myTasks        func(userID string) ([]dtos.Task, error)
	deleteBid      func(id string) error
	profileCtx     func(ctx context.Context) (*dtos.User, error)
	verifySub      func(plan constants.PlanType) (*dtos.SubscriptionVerifyResponse, error)
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Categories(ctx context.Context, token string) ([]dtos.Category, error) {
	f.record("categories")
	return f.categories(ctx)
}

func (f *fakeBackend) CreateCategory(ctx context.Context, token, name string) (*dtos.Category, error) {
	f.record("create_category")
	return f.createCategory(name)
}

func (f *fakeBackend) UpdateCategory(ctx context.Context, token, id, name string) (*dtos.Category, error) {
	f.record("update_category:" + id)
	return f.updateCategory(id, name)
}

func (f *fakeBackend) DeleteCategory(ctx context.Context, token, id string) (*dtos.Category, error) {
	f.record("delete_category:" + id)
	return f.deleteCategory(id)
}

func (f *fakeBackend) BrowseTasks(ctx context.Context, token string, q dtos.TaskQuery) (*dtos.TaskPage, error) {
	f.record("browse")
	return f.browse(ctx, q)
}

func (f *fakeBackend) UpdateTask(ctx context.Context, token, id string, req dtos.TaskUpdateRequest) (*dtos.Task, error) {
	f.record("update_task:" + id)
	return f.updateTask(id, req)
}

func (f *fakeBackend) DeleteTask(ctx context.Context, token, id string) error {
	f.record("delete_task:" + id)
	return f.deleteTask(id)
}

func (f *fakeBackend) BidsForTask(ctx context.Context, token, taskID string) ([]dtos.Bid, error) {
	f.record("bids:" + taskID)
	return f.bidsForTask(ctx, taskID)
}

func (f *fakeBackend) SetBidStatus(ctx context.Context, token, id string, status constants.BidStatus) (*dtos.Bid, error) {
	f.record("bid_status:" + id)
	return f.setBidStatus(id, status)
}

func (f *fakeBackend) PlaceBid(ctx context.Context, token, taskID string, req dtos.BidRequest) (*dtos.Bid, error) {
	f.record("place_bid:" + taskID)
	return f.placeBid(taskID, req)
}

func (f *fakeBackend) ListUsers(ctx context.Context, token string) ([]dtos.User, error) {
	f.record("users")
	return f.listUsers()
}

func (f *fakeBackend) SetUserActive(ctx context.Context, token, id string, active bool) (*dtos.User, error) {
	f.record("activate:" + id)
	return f.setUserActive(id, active)
}

func (f *fakeBackend) MyProfile(ctx context.Context, token string) (*dtos.User, error) {
	f.record("profile")
	if f.profileCtx != nil {
		return f.profileCtx(ctx)
	}
	return f.myProfile()
}

func (f *fakeBackend) CreateTask(ctx context.Context, token string, req dtos.TaskCreateRequest) (*dtos.Task, error) {
	f.record("create_task")
	return f.createTask(req)
}

func (f *fakeBackend) MyTasks(ctx context.Context, token, userID string) ([]dtos.Task, error) {
	f.record("my_tasks:" + userID)
	return f.myTasks(userID)
}

func (f *fakeBackend) VerifySubscription(ctx context.Context, token string, proof dtos.PaymentProof, plan constants.PlanType) (*dtos.SubscriptionVerifyResponse, error) {
	f.record("verify_subscription:" + string(plan))
	return f.verifySub(plan)
}

func (f *fakeBackend) DeleteBid(ctx context.Context, token, id string) error {
	f.record("delete_bid:" + id)
	return f.deleteBid(id)
}

func (f *fakeBackend) Withdraw(ctx context.Context, token string, amount decimal.Decimal) (decimal.Decimal, error) {
	f.record("withdraw")
	return f.withdraw(amount)
}

func rejectedWith(status int, msg string) error {
	return &providers.ProviderError{Code: constants.ErrCodeRejected, Status: status, Message: msg}
}

func TestCategories_FetchIsIdempotent(t *testing.T) {
	api := &fakeBackend{categories: func(context.Context) ([]dtos.Category, error) {
		return []dtos.Category{{ID: "c1", Name: "Design"}, {ID: "c2", Name: "Writing"}}, nil
	}}
	cats := New(api, nil).Categories

	require.True(t, cats.Fetch(context.Background(), "tok").OK())
	first := cats.Snapshot()
	require.True(t, cats.Fetch(context.Background(), "tok").OK())
	second := cats.Snapshot()

	assert.Equal(t, first.Items, second.Items)
	assert.False(t, second.Loading)
	assert.Empty(t, second.Error)
}

func TestCategories_CreateAppendsOnce(t *testing.T) {
	api := &fakeBackend{
		categories: func(context.Context) ([]dtos.Category, error) {
			return []dtos.Category{{ID: "c1", Name: "Design"}}, nil
		},
		createCategory: func(name string) (*dtos.Category, error) {
			return &dtos.Category{ID: "c2", Name: name}, nil
		},
	}
	cats := New(api, nil).Categories
	require.True(t, cats.Fetch(context.Background(), "tok").OK())

	require.True(t, cats.Create(context.Background(), "tok", "Video").OK())
	require.True(t, cats.Create(context.Background(), "tok", "Video").OK())

	ids := map[string]int{}
	for _, c := range cats.Snapshot().Items {
		ids[c.ID]++
	}
	assert.Equal(t, map[string]int{"c1": 1, "c2": 1}, ids)
}

func TestCategories_DeleteFiltersAndClearsCursor(t *testing.T) {
	api := &fakeBackend{
		categories: func(context.Context) ([]dtos.Category, error) {
			return []dtos.Category{{ID: "c1"}, {ID: "c2"}}, nil
		},
		deleteCategory: func(id string) (*dtos.Category, error) {
			return &dtos.Category{ID: id}, nil
		},
	}
	cats := New(api, nil).Categories
	require.True(t, cats.Fetch(context.Background(), "tok").OK())
	cats.SetEditID("c2")

	require.True(t, cats.Delete(context.Background(), "tok", "c2").OK())

	snap := cats.Snapshot()
	assert.Equal(t, []dtos.Category{{ID: "c1"}}, snap.Items)
	assert.Empty(t, snap.EditID)
}

func TestCategories_UpdateUsesEditCursor(t *testing.T) {
	api := &fakeBackend{
		categories: func(context.Context) ([]dtos.Category, error) {
			return []dtos.Category{{ID: "c1", Name: "Old"}}, nil
		},
		updateCategory: func(id, name string) (*dtos.Category, error) {
			return &dtos.Category{ID: id, Name: name}, nil
		},
	}
	cats := New(api, nil).Categories
	require.True(t, cats.Fetch(context.Background(), "tok").OK())
	cats.SetEditID("c1")

	editing := cats.Snapshot().Editing()
	require.NotNil(t, editing)
	require.True(t, cats.Update(context.Background(), "tok", editing.ID, "New").OK())

	assert.Contains(t, api.Calls(), "update_category:c1")
	assert.NotContains(t, api.Calls(), "create_category")
	assert.Equal(t, "New", cats.Snapshot().Name("c1"))
	assert.Empty(t, cats.Snapshot().EditID)
}

func TestDispatch_RejectionSetsMessage(t *testing.T) {
	fail := true
	api := &fakeBackend{categories: func(context.Context) ([]dtos.Category, error) {
		if fail {
			return nil, rejectedWith(http.StatusBadRequest, "Category service down")
		}
		return []dtos.Category{}, nil
	}}
	cats := New(api, nil).Categories

	out := cats.Fetch(context.Background(), "tok")
	assert.Equal(t, Rejected, out.Status)
	assert.Equal(t, "Category service down", out.Message)
	assert.Equal(t, "Category service down", cats.Snapshot().Error)

	fail = false
	require.True(t, cats.Fetch(context.Background(), "tok").OK())
	assert.Empty(t, cats.Snapshot().Error)
}

func TestDispatch_UnknownFailureUsesGenericMessage(t *testing.T) {
	api := &fakeBackend{categories: func(context.Context) ([]dtos.Category, error) {
		return nil, errors.New("boom")
	}}
	out := New(api, nil).Categories.Fetch(context.Background(), "tok")
	assert.Equal(t, constants.MsgGenericFailure, out.Message)
}

func TestDispatch_NewerDispatchSupersedesOlder(t *testing.T) {
	started := make(chan struct{})
	api := &fakeBackend{browse: func(ctx context.Context, q dtos.TaskQuery) (*dtos.TaskPage, error) {
		if q.Page == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &dtos.TaskPage{Tasks: []dtos.Task{{ID: "p2"}}, TotalPages: 4}, nil
	}}
	tasks := New(api, nil).Tasks

	first := make(chan Outcome, 1)
	go func() {
		first <- tasks.Browse(context.Background(), "", dtos.TaskQuery{Page: 1})
	}()
	<-started

	second := tasks.Browse(context.Background(), "", dtos.TaskQuery{Page: 2})
	require.True(t, second.OK())

	select {
	case out := <-first:
		assert.True(t, out.Superseded())
	case <-time.After(2 * time.Second):
		t.Fatal("older dispatch was not cancelled")
	}

	snap := tasks.Snapshot()
	assert.Equal(t, 2, snap.PageNum)
	assert.Equal(t, 4, snap.TotalPages)
	assert.Equal(t, "p2", snap.Page[0].ID)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
}

func TestDispatch_ResetSupersedesInFlight(t *testing.T) {
	started := make(chan struct{})
	api := &fakeBackend{categories: func(ctx context.Context) ([]dtos.Category, error) {
		close(started)
		<-ctx.Done()
		return []dtos.Category{{ID: "late"}}, nil
	}}
	st := New(api, nil)

	done := make(chan Outcome, 1)
	go func() { done <- st.Categories.Fetch(context.Background(), "tok") }()
	<-started
	st.Reset()

	out := <-done
	assert.True(t, out.Superseded())
	assert.Empty(t, st.Categories.Snapshot().Items)
}

func TestTasks_UpdateAndDelete(t *testing.T) {
	api := &fakeBackend{
		browse: func(ctx context.Context, q dtos.TaskQuery) (*dtos.TaskPage, error) {
			return &dtos.TaskPage{Items: []dtos.Task{{ID: "t1", Description: "old"}, {ID: "t2"}}, TotalPages: 1}, nil
		},
		updateTask: func(id string, req dtos.TaskUpdateRequest) (*dtos.Task, error) {
			return nil, nil
		},
		deleteTask: func(id string) error { return nil },
	}
	tasks := New(api, nil).Tasks
	require.True(t, tasks.Browse(context.Background(), "", dtos.TaskQuery{}).OK())
	tasks.SetEditID("t1")

	require.True(t, tasks.Update(context.Background(), "tok", "t1", dtos.TaskUpdateRequest{Description: "new"}).OK())
	snap := tasks.Snapshot()
	assert.Equal(t, "new", snap.Page[0].Description)
	assert.Empty(t, snap.EditID)

	require.True(t, tasks.Delete(context.Background(), "tok", "t1").OK())
	for _, task := range tasks.Snapshot().Page {
		assert.NotEqual(t, "t1", task.ID)
	}
}

func TestTasks_CreateAddsToMineOnce(t *testing.T) {
	api := &fakeBackend{
		myTasks: func(userID string) ([]dtos.Task, error) {
			return []dtos.Task{{ID: "t1"}, {ID: "t2", Title: "stale"}}, nil
		},
		createTask: func(req dtos.TaskCreateRequest) (*dtos.Task, error) {
			if req.Title == "fresh" {
				return &dtos.Task{ID: "t3", Title: req.Title}, nil
			}
			return &dtos.Task{ID: "t2", Title: req.Title}, nil
		},
	}
	tasks := New(api, nil).Tasks
	require.True(t, tasks.FetchMine(context.Background(), "tok", "u1").OK())

	created, out := tasks.Create(context.Background(), "tok", dtos.TaskCreateRequest{Title: "fresh"})
	require.True(t, out.OK())
	assert.Equal(t, "t3", created.ID)

	_, out = tasks.Create(context.Background(), "tok", dtos.TaskCreateRequest{Title: "again"})
	require.True(t, out.OK())

	ids := map[string]int{}
	for _, task := range tasks.Snapshot().Mine {
		ids[task.ID]++
	}
	assert.Equal(t, map[string]int{"t1": 1, "t2": 1, "t3": 1}, ids)
	assert.Len(t, tasks.Snapshot().Mine, 3)
}

func TestBids_PlaceThenDecideRefetches(t *testing.T) {
	server := []dtos.Bid{{ID: "b1", Status: constants.BidPending}}
	api := &fakeBackend{
		bidsForTask: func(ctx context.Context, taskID string) ([]dtos.Bid, error) {
			return append([]dtos.Bid(nil), server...), nil
		},
		placeBid: func(taskID string, req dtos.BidRequest) (*dtos.Bid, error) {
			bid := dtos.Bid{ID: "b2", Status: constants.BidPending}
			server = append(server, bid)
			return &bid, nil
		},
		setBidStatus: func(id string, status constants.BidStatus) (*dtos.Bid, error) {
			for i := range server {
				server[i].Status = constants.BidRejected
				if server[i].ID == id {
					server[i].Status = status
				}
			}
			return &dtos.Bid{ID: id, Status: status}, nil
		},
	}
	bids := New(api, nil).Bids
	require.True(t, bids.Fetch(context.Background(), "tok", "t1").OK())
	require.True(t, bids.Place(context.Background(), "tok", "t1", dtos.BidRequest{BidAmount: "100"}).OK())
	assert.Len(t, bids.Snapshot().For("t1"), 2)

	require.True(t, bids.Decide(context.Background(), "tok", "t1", "b2", constants.BidAccepted).OK())

	held := bids.Snapshot().For("t1")
	require.Len(t, held, 2)
	assert.Equal(t, constants.BidRejected, held[0].Status)
	assert.Equal(t, "b2", dtos.Accepted(held).ID)
	assert.Equal(t, []string{"bids:t1", "place_bid:t1", "bid_status:b2", "bids:t1"}, api.Calls())
}

func TestBids_MutationOutcomeSurvivesFailedReload(t *testing.T) {
	api := &fakeBackend{
		bidsForTask: func(ctx context.Context, taskID string) ([]dtos.Bid, error) {
			return nil, rejectedWith(http.StatusInternalServerError, "db down")
		},
		setBidStatus: func(id string, status constants.BidStatus) (*dtos.Bid, error) {
			return &dtos.Bid{ID: id, Status: status}, nil
		},
		deleteBid: func(id string) error { return nil },
	}
	bids := New(api, nil).Bids

	decided := bids.Decide(context.Background(), "tok", "t1", "b1", constants.BidAccepted)
	assert.True(t, decided.OK())
	assert.Equal(t, "db down", bids.Snapshot().Error)

	deleted := bids.Delete(context.Background(), "tok", "t1", "b2")
	assert.True(t, deleted.OK())
	assert.Equal(t, "db down", bids.Snapshot().Error)

	assert.Equal(t, []string{"bid_status:b1", "bids:t1", "delete_bid:b2", "bids:t1"}, api.Calls())
}

func TestBids_LookupTreatsFailureAsZero(t *testing.T) {
	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	api := &fakeBackend{bidsForTask: func(ctx context.Context, taskID string) ([]dtos.Bid, error) {
		if taskID == "bad" {
			return nil, rejectedWith(http.StatusInternalServerError, "boom")
		}
		return []dtos.Bid{{ID: taskID + "-b1"}, {ID: taskID + "-b2"}}, nil
	}}
	bids := New(api, m).Bids

	got := bids.Lookup(context.Background(), "", []string{"t1", "bad", "t2"})

	assert.Len(t, got["t1"], 2)
	assert.Len(t, got["t2"], 2)
	assert.Empty(t, got["bad"])
	assert.Contains(t, got, "bad")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BidCountFallbacks))
	assert.Empty(t, bids.Snapshot().Error)
}

func TestUsers_SetActiveReplacesOnlyThatUser(t *testing.T) {
	api := &fakeBackend{
		listUsers: func() ([]dtos.User, error) {
			return []dtos.User{
				{ID: "a", Role: constants.RoleAdmin, IsActive: true},
				{ID: "u1", Role: constants.RolePoster, IsActive: true},
				{ID: "u2", Role: constants.RoleHunter, IsActive: true},
			}, nil
		},
		setUserActive: func(id string, active bool) (*dtos.User, error) {
			return &dtos.User{ID: id, Role: constants.RolePoster, IsActive: active}, nil
		},
	}
	users := New(api, nil).Users
	require.True(t, users.FetchAll(context.Background(), "tok").OK())

	require.True(t, users.SetActive(context.Background(), "tok", "u1", false).OK())

	shown := users.Snapshot().NonAdmins()
	require.Len(t, shown, 2)
	assert.False(t, shown[0].IsActive)
	assert.True(t, shown[1].IsActive)
}

func TestUsers_WithdrawMirrorsBalance(t *testing.T) {
	api := &fakeBackend{
		myProfile: func() (*dtos.User, error) {
			return &dtos.User{ID: "h1", WalletBalance: decimal.NewFromInt(500)}, nil
		},
		withdraw: func(amount decimal.Decimal) (decimal.Decimal, error) {
			return decimal.NewFromInt(500).Sub(amount), nil
		},
	}
	users := New(api, nil).Users
	require.True(t, users.FetchAccount(context.Background(), "tok").OK())
	before := users.Snapshot().Current

	require.True(t, users.Withdraw(context.Background(), "tok", decimal.NewFromInt(200)).OK())

	assert.True(t, users.Snapshot().Current.WalletBalance.Equal(decimal.NewFromInt(300)))
	assert.True(t, before.WalletBalance.Equal(decimal.NewFromInt(500)), "snapshot must not change")
}

func TestUsers_LoadAccountSharesOneFetch(t *testing.T) {
	release := make(chan struct{})
	api := &fakeBackend{profileCtx: func(ctx context.Context) (*dtos.User, error) {
		<-release
		return &dtos.User{ID: "u1"}, ctx.Err()
	}}
	users := New(api, nil).Users

	// The first caller leaving must not cancel the shared load.
	ctx, cancel := context.WithCancel(context.Background())
	outs := make(chan Outcome, 2)
	go func() { outs <- users.LoadAccount(ctx, "tok") }()
	go func() { outs <- users.LoadAccount(context.Background(), "tok") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)

	for i := 0; i < 2; i++ {
		assert.True(t, (<-outs).OK())
	}
	assert.Equal(t, "u1", users.Snapshot().Current.ID)
	assert.Equal(t, []string{"profile"}, api.Calls())
}

func TestSubscription_VerifyRecordsEntitlement(t *testing.T) {
	end := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeBackend{verifySub: func(plan constants.PlanType) (*dtos.SubscriptionVerifyResponse, error) {
		return &dtos.SubscriptionVerifyResponse{SubscriptionID: "sub_1", EndDate: &end}, nil
	}}
	subs := New(api, nil).Subscription

	sub, out := subs.Verify(context.Background(), "tok", dtos.PaymentProof{PaymentID: "pay_1"}, constants.PlanMonthly)
	require.True(t, out.OK())
	assert.True(t, sub.IsActive)
	assert.Equal(t, "sub_1", sub.SubscriptionID)
	assert.True(t, subs.Snapshot().Active(end.Add(-time.Hour)))
	assert.Equal(t, []string{"verify_subscription:" + string(constants.PlanMonthly)}, api.Calls())
}

func TestRegistry_ForAndDrop(t *testing.T) {
	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	reg := NewRegistry(&fakeBackend{}, m, time.Minute, time.Minute)

	a := reg.For("s1")
	assert.Same(t, a, reg.For("s1"))
	assert.NotSame(t, a, reg.For("s2"))
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveStores))

	reg.Drop("s1")
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveStores))
	assert.NotSame(t, a, reg.For("s1"))
}
