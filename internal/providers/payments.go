package providers

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
)

// ============================================================================
// Wallet
// ============================================================================

// CreateWalletOrder asks the backend for a gateway order to top up amount.
func (p *BackendProvider) CreateWalletOrder(ctx context.Context, token string, amount decimal.Decimal) (*dtos.Order, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var resp dtos.OrderResponse
	if _, err := p.doPost(ctx, "/wallet", token, dtos.AmountRequest{Amount: json.Number(amount.String())}, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

// VerifyDeposit forwards the checkout proof; the backend checks it and credits the wallet.
func (p *BackendProvider) VerifyDeposit(ctx context.Context, token string, proof dtos.PaymentProof, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := requireToken(token); err != nil {
		return decimal.Zero, err
	}
	req := dtos.DepositVerifyRequest{PaymentProof: proof, Amount: json.Number(amount.String())}
	var resp dtos.WalletBalanceResponse
	if _, err := p.doPost(ctx, "/wallet/deposit", token, req, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.UpdatedWalletBalance, nil
}

func (p *BackendProvider) WalletBalance(ctx context.Context, token, userID string) (decimal.Decimal, error) {
	if err := requireToken(token); err != nil {
		return decimal.Zero, err
	}
	if err := requireID("User", userID); err != nil {
		return decimal.Zero, err
	}
	var resp dtos.WalletBalanceResponse
	if _, err := p.doGET(ctx, "/wallet/balance/"+pathID(userID), token, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.UpdatedWalletBalance, nil
}

func (p *BackendProvider) Withdraw(ctx context.Context, token string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := requireToken(token); err != nil {
		return decimal.Zero, err
	}
	var resp dtos.WalletBalanceResponse
	if _, err := p.doPost(ctx, "/wallet/withdraw", token, dtos.AmountRequest{Amount: json.Number(amount.String())}, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.UpdatedWalletBalance, nil
}

// Transactions searches the ledger. Search holds either free text or a transaction type.
func (p *BackendProvider) Transactions(ctx context.Context, token string, q dtos.TransactionQuery) ([]dtos.Transaction, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	v := url.Values{}
	v.Set("search", q.Search)
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	var txs []dtos.Transaction
	if _, err := p.doGET(ctx, "/transactions?"+v.Encode(), token, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// ============================================================================
// Subscription
// ============================================================================

func (p *BackendProvider) CreateSubscriptionOrder(ctx context.Context, token string, plan constants.PlanType) (*dtos.Order, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var resp dtos.OrderResponse
	if _, err := p.doPost(ctx, "/subscription", token, dtos.SubscriptionRequest{PlanType: plan}, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

func (p *BackendProvider) VerifySubscription(ctx context.Context, token string, proof dtos.PaymentProof, plan constants.PlanType) (*dtos.SubscriptionVerifyResponse, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	req := dtos.SubscriptionVerifyRequest{PaymentProof: proof, PlanType: plan}
	var resp dtos.SubscriptionVerifyResponse
	if _, err := p.doPost(ctx, "/subscription/verify", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *BackendProvider) SubscriptionStatus(ctx context.Context, token string) (*dtos.Subscription, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	var sub dtos.Subscription
	if _, err := p.doGET(ctx, "/subscription", token, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ============================================================================
// Leaderboard
// ============================================================================

func (p *BackendProvider) Leaderboard(ctx context.Context) ([]dtos.LeaderboardEntry, error) {
	var entries []dtos.LeaderboardEntry
	if _, err := p.doGET(ctx, "/leaderboard", "", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
