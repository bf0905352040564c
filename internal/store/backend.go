package store

import (
	"context"

	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
)

// Backend is the subset of the TaskBounty API the containers dispatch against.
// providers.BackendProvider satisfies it.
type Backend interface {
	Login(ctx context.Context, req dtos.LoginRequest) (string, error)
	Register(ctx context.Context, req dtos.RegisterRequest) error
	UserCount(ctx context.Context) (int, error)
	MyProfile(ctx context.Context, token string) (*dtos.User, error)
	UpdateProfile(ctx context.Context, token string, upd dtos.ProfileUpdate) (*dtos.User, error)
	ListUsers(ctx context.Context, token string) ([]dtos.User, error)
	SetUserActive(ctx context.Context, token, userID string, active bool) (*dtos.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req dtos.ResetPasswordRequest) (string, error)

	Categories(ctx context.Context, token string) ([]dtos.Category, error)
	CreateCategory(ctx context.Context, token, name string) (*dtos.Category, error)
	UpdateCategory(ctx context.Context, token, id, name string) (*dtos.Category, error)
	DeleteCategory(ctx context.Context, token, id string) (*dtos.Category, error)

	CreateTask(ctx context.Context, token string, req dtos.TaskCreateRequest) (*dtos.Task, error)
	AllTasks(ctx context.Context, token string) ([]dtos.Task, error)
	BrowseTasks(ctx context.Context, token string, q dtos.TaskQuery) (*dtos.TaskPage, error)
	MyTasks(ctx context.Context, token, userID string) ([]dtos.Task, error)
	GetTask(ctx context.Context, token, id string) (*dtos.Task, error)
	WorkSummary(ctx context.Context, token string) (*dtos.WorkSummary, error)
	UpdateTask(ctx context.Context, token, id string, req dtos.TaskUpdateRequest) (*dtos.Task, error)
	DeleteTask(ctx context.Context, token, id string) error
	SubmitWork(ctx context.Context, token, id string, file *dtos.Upload) (*dtos.Task, error)
	CompleteTask(ctx context.Context, token, id string, req dtos.TaskCompleteRequest) (*dtos.Task, error)

	PlaceBid(ctx context.Context, token, taskID string, req dtos.BidRequest) (*dtos.Bid, error)
	BidsForTask(ctx context.Context, token, taskID string) ([]dtos.Bid, error)
	UpdateBid(ctx context.Context, token, bidID string, req dtos.BidRequest) (*dtos.Bid, error)
	SetBidStatus(ctx context.Context, token, bidID string, status constants.BidStatus) (*dtos.Bid, error)
	DeleteBid(ctx context.Context, token, bidID string) error

	CreateWalletOrder(ctx context.Context, token string, amount decimal.Decimal) (*dtos.Order, error)
	VerifyDeposit(ctx context.Context, token string, proof dtos.PaymentProof, amount decimal.Decimal) (decimal.Decimal, error)
	WalletBalance(ctx context.Context, token, userID string) (decimal.Decimal, error)
	Withdraw(ctx context.Context, token string, amount decimal.Decimal) (decimal.Decimal, error)
	Transactions(ctx context.Context, token string, q dtos.TransactionQuery) ([]dtos.Transaction, error)
	CreateSubscriptionOrder(ctx context.Context, token string, plan constants.PlanType) (*dtos.Order, error)
	VerifySubscription(ctx context.Context, token string, proof dtos.PaymentProof, plan constants.PlanType) (*dtos.SubscriptionVerifyResponse, error)
	SubscriptionStatus(ctx context.Context, token string) (*dtos.Subscription, error)
	Leaderboard(ctx context.Context) ([]dtos.LeaderboardEntry, error)
}
