package dtos

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
)

// Order is the payment order created by the backend with the gateway. Amount is
// in the smallest currency unit.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

type OrderResponse struct {
	Order Order `json:"order"`
}

type AmountRequest struct {
	Amount json.Number `json:"amount"`
}

// PaymentProof is the checkout widget's completion payload. It is opaque to the
// portal and forwarded as-is.
type PaymentProof struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Signature string `json:"signature"`
}

type DepositVerifyRequest struct {
	PaymentProof
	Amount json.Number `json:"amount"`
}

type WalletBalanceResponse struct {
	UpdatedWalletBalance decimal.Decimal `json:"updatedWalletBalance"`
}

type SubscriptionRequest struct {
	PlanType constants.PlanType `json:"planType"`
}

type SubscriptionVerifyRequest struct {
	PaymentProof
	PlanType constants.PlanType `json:"planType"`
}

type SubscriptionVerifyResponse struct {
	SubscriptionID string     `json:"subscriptionId"`
	EndDate        *time.Time `json:"endDate"`
}

// Subscription is the poster's entitlement as last reported by the backend.
type Subscription struct {
	IsActive       bool       `json:"isActive"`
	EndDate        *time.Time `json:"endDate"`
	SubscriptionID string     `json:"subscriptionId"`
}

type Transaction struct {
	ID        string                    `json:"_id"`
	UserID    *Ref                      `json:"userId,omitempty"`
	Type      constants.TransactionType `json:"type"`
	Amount    decimal.Decimal           `json:"amount"`
	Method    string                    `json:"method"`
	CreatedAt time.Time                 `json:"createdAt"`
}

type TransactionQuery struct {
	Search string
	SortBy string
	Order  string
}

type LeaderboardEntry struct {
	Name                string          `json:"name"`
	TotalEarnings       decimal.Decimal `json:"totalEarnings"`
	TotalTasksCompleted int             `json:"totalTasksCompleted"`
}

// MessageResponse is the generic {msg|message} acknowledgement.
type MessageResponse struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

func (m MessageResponse) Text() string {
	if m.Msg != "" {
		return m.Msg
	}
	return m.Message
}
