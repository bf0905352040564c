package store

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/models/dtos"
)

// UsersState is a point-in-time copy of the users container.
type UsersState struct {
	Loading      bool
	Error        string
	Current      *dtos.User
	List         []dtos.User
	Count        int
	CountKnown   bool
	Summary      *dtos.WorkSummary
	Transactions []dtos.Transaction
}

// LoggedIn reports whether the current user has been loaded.
func (s UsersState) LoggedIn() bool { return s.Current != nil }

// NonAdmins is the list shown on the user administration screen.
func (s UsersState) NonAdmins() []dtos.User {
	out := make([]dtos.User, 0, len(s.List))
	for _, u := range s.List {
		if u.Role != constants.RoleAdmin {
			out = append(out, u)
		}
	}
	return out
}

// Users holds the signed-in account, the admin user list and wallet data.
type Users struct {
	base
	api Backend

	current    *dtos.User
	list       []dtos.User
	count      int
	countKnown bool
	summary    *dtos.WorkSummary
	txns       []dtos.Transaction

	accountLoad singleflight.Group
}

func newUsers(api Backend, m *metrics.MetricsRegistry) *Users {
	return &Users{base: newBase("users", m), api: api}
}

func userID(u dtos.User) string { return u.ID }

func (u *Users) Snapshot() UsersState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	loading, errMsg := u.status()
	return UsersState{
		Loading:      loading,
		Error:        errMsg,
		Current:      u.current,
		List:         u.list,
		Count:        u.count,
		CountKnown:   u.countKnown,
		Summary:      u.summary,
		Transactions: u.txns,
	}
}

// Login exchanges credentials for a backend token. The user itself is loaded
// by FetchAccount once the session holds the token.
func (u *Users) Login(ctx context.Context, req dtos.LoginRequest) (string, Outcome) {
	return dispatch(ctx, &u.base, "login", "login", func(c context.Context) (string, error) {
		return u.api.Login(c, req)
	}, nil)
}

func (u *Users) Register(ctx context.Context, req dtos.RegisterRequest) Outcome {
	return dispatchErr(ctx, &u.base, "register", "register", func(c context.Context) error {
		return u.api.Register(c, req)
	}, nil)
}

func (u *Users) FetchAccount(ctx context.Context, token string) Outcome {
	_, out := dispatch(ctx, &u.base, "fetch_account", "account", func(c context.Context) (*dtos.User, error) {
		return u.api.MyProfile(c, token)
	}, func(user *dtos.User) {
		u.current = user
	})
	return out
}

// LoadAccount fetches the signed-in account once for every concurrent caller.
// Callers share the first load's outcome instead of superseding each other,
// and the load outlives a caller that goes away.
func (u *Users) LoadAccount(ctx context.Context, token string) Outcome {
	v, _, _ := u.accountLoad.Do(token, func() (interface{}, error) {
		return u.FetchAccount(context.WithoutCancel(ctx), token), nil
	})
	out := v.(Outcome)
	if out.Superseded() && u.Snapshot().Current != nil {
		return fulfilled()
	}
	return out
}

func (u *Users) UpdateProfile(ctx context.Context, token string, upd dtos.ProfileUpdate) Outcome {
	_, out := dispatch(ctx, &u.base, "update_profile", "profile", func(c context.Context) (*dtos.User, error) {
		return u.api.UpdateProfile(c, token, upd)
	}, func(user *dtos.User) {
		u.current = mergeProfile(u.current, user)
	})
	return out
}

// mergeProfile keeps fields the profile endpoint does not echo back.
func mergeProfile(cur, upd *dtos.User) *dtos.User {
	if cur == nil {
		return upd
	}
	if upd == nil {
		return cur
	}
	next := *cur
	if upd.Email != "" {
		next.Email = upd.Email
	}
	next.Bio = upd.Bio
	if upd.Avatar != "" {
		next.Avatar = upd.Avatar
	}
	if upd.Name != "" {
		next.Name = upd.Name
	}
	return &next
}

func (u *Users) FetchAll(ctx context.Context, token string) Outcome {
	_, out := dispatch(ctx, &u.base, "fetch_users", "users", func(c context.Context) ([]dtos.User, error) {
		return u.api.ListUsers(c, token)
	}, func(users []dtos.User) {
		u.list = users
	})
	return out
}

// SetActive toggles one account and replaces only that entry in the list.
func (u *Users) SetActive(ctx context.Context, token, id string, active bool) Outcome {
	_, out := dispatch(ctx, &u.base, "set_active", "activate:"+id, func(c context.Context) (*dtos.User, error) {
		return u.api.SetUserActive(c, token, id, active)
	}, func(user *dtos.User) {
		next := dtos.User{ID: id}
		for _, existing := range u.list {
			if existing.ID == id {
				next = existing
				break
			}
		}
		if user != nil && user.ID == id {
			next = *user
		}
		next.IsActive = active
		u.list = replaceByID(u.list, next, userID)
	})
	return out
}

func (u *Users) FetchCount(ctx context.Context) Outcome {
	_, out := dispatch(ctx, &u.base, "fetch_count", "count", func(c context.Context) (int, error) {
		return u.api.UserCount(c)
	}, func(n int) {
		u.count = n
		u.countKnown = true
	})
	return out
}

func (u *Users) ForgotPassword(ctx context.Context, email string) (string, Outcome) {
	return dispatch(ctx, &u.base, "forgot_password", "forgot", func(c context.Context) (string, error) {
		return u.api.ForgotPassword(c, email)
	}, nil)
}

func (u *Users) ResetPassword(ctx context.Context, req dtos.ResetPasswordRequest) (string, Outcome) {
	return dispatch(ctx, &u.base, "reset_password", "reset", func(c context.Context) (string, error) {
		return u.api.ResetPassword(c, req)
	}, nil)
}

func (u *Users) FetchWorkSummary(ctx context.Context, token string) Outcome {
	_, out := dispatch(ctx, &u.base, "fetch_work_summary", "summary", func(c context.Context) (*dtos.WorkSummary, error) {
		return u.api.WorkSummary(c, token)
	}, func(s *dtos.WorkSummary) {
		u.summary = s
	})
	return out
}

func (u *Users) FetchTransactions(ctx context.Context, token string, q dtos.TransactionQuery) Outcome {
	_, out := dispatch(ctx, &u.base, "fetch_transactions", "transactions", func(c context.Context) ([]dtos.Transaction, error) {
		return u.api.Transactions(c, token, q)
	}, func(txns []dtos.Transaction) {
		u.txns = txns
	})
	return out
}

// CreateDepositOrder is phase one of a wallet top-up. State is not touched.
func (u *Users) CreateDepositOrder(ctx context.Context, token string, amount decimal.Decimal) (*dtos.Order, Outcome) {
	return dispatch(ctx, &u.base, "create_deposit_order", "deposit_order", func(c context.Context) (*dtos.Order, error) {
		return u.api.CreateWalletOrder(c, token, amount)
	}, nil)
}

// VerifyDeposit forwards the checkout proof and mirrors the new balance.
func (u *Users) VerifyDeposit(ctx context.Context, token string, proof dtos.PaymentProof, amount decimal.Decimal) Outcome {
	_, out := dispatch(ctx, &u.base, "verify_deposit", "deposit_verify", func(c context.Context) (decimal.Decimal, error) {
		return u.api.VerifyDeposit(c, token, proof, amount)
	}, u.setBalance)
	return out
}

func (u *Users) Withdraw(ctx context.Context, token string, amount decimal.Decimal) Outcome {
	_, out := dispatch(ctx, &u.base, "withdraw", "withdraw", func(c context.Context) (decimal.Decimal, error) {
		return u.api.Withdraw(c, token, amount)
	}, u.setBalance)
	return out
}

func (u *Users) FetchBalance(ctx context.Context, token string) Outcome {
	u.mu.RLock()
	id := ""
	if u.current != nil {
		id = u.current.ID
	}
	u.mu.RUnlock()

	_, out := dispatch(ctx, &u.base, "fetch_balance", "balance", func(c context.Context) (decimal.Decimal, error) {
		return u.api.WalletBalance(c, token, id)
	}, u.setBalance)
	return out
}

// setBalance must be called with mu held.
func (u *Users) setBalance(bal decimal.Decimal) {
	if u.current == nil {
		return
	}
	next := *u.current
	next.WalletBalance = bal
	u.current = &next
}

// SetSubscribed mirrors a verified subscription onto the current user.
func (u *Users) SetSubscribed(active bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.current == nil {
		return
	}
	next := *u.current
	next.Subscription = active
	u.current = &next
}

// Clear drops everything, as on logout.
func (u *Users) Clear() {
	u.ops.abandon()
	u.mu.Lock()
	defer u.mu.Unlock()
	u.current = nil
	u.list = nil
	u.count = 0
	u.countKnown = false
	u.summary = nil
	u.txns = nil
	u.err = ""
}
