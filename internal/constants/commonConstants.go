package constants

type (
	TaskStatus      string
	BidStatus       string
	TransactionType string
	PlanType        string
	APIStatus       string
	CachePrefix     string
)

// Task lifecycle as reported by the backend.
const (
	TaskOpen        TaskStatus = "open"
	TaskInProgress  TaskStatus = "in_progress"
	TaskSubmitted   TaskStatus = "submitted"
	TaskUnderReview TaskStatus = "under_review"
	TaskAccepted    TaskStatus = "accepted"
	TaskCompleted   TaskStatus = "completed"
	TaskIncomplete  TaskStatus = "incomplete"
	TaskRejected    TaskStatus = "rejected"
)

func (s TaskStatus) String() string { return string(s) }

// Terminal reports whether no further transition is expected.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskIncomplete
}

// AwaitingReview reports whether the poster may accept or reject the submission.
func (s TaskStatus) AwaitingReview() bool {
	return s == TaskSubmitted || s == TaskUnderReview
}

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

func (s BidStatus) String() string { return string(s) }

const (
	TxTaskPosting         TransactionType = "task_posting"
	TxTaskPayment         TransactionType = "task_payment"
	TxSubscriptionPayment TransactionType = "subscription_payment"
	TxDeposit             TransactionType = "deposit"
	TxWithdraw            TransactionType = "withdraw"
)

// TransactionTypes is the fixed filter list on the admin transactions screen.
var TransactionTypes = []TransactionType{
	TxTaskPosting, TxTaskPayment, TxSubscriptionPayment, TxDeposit, TxWithdraw,
}

const (
	PlanMonthly PlanType = "monthly"
	PlanYearly  PlanType = "yearly"
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

const (
	CachePrefixSessionStore CachePrefix = "STORE_"
	CachePrefixUsedIntent   CachePrefix = "used_intent:"
	CachePrefixSession      CachePrefix = "session:"
)
