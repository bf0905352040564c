package payment

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/common"
	"taskbounty/portal/internal/config"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
	"taskbounty/portal/internal/providers"
)

// Checkout kinds.
const (
	KindDeposit      = "deposit"
	KindSubscription = "subscription"
)

var ErrMissingProof = errors.New("payment callback is missing provider fields")

// Checkout is everything the widget page needs to open the provider's modal.
type Checkout struct {
	Kind        string
	KeyID       string
	ScriptURL   string
	OrderID     string
	Amount      int64
	Currency    string
	Description string
	Intent      string
	CallbackURL string
	Prefill     dtos.User
}

// Callback is what the widget page posts back after the provider's modal
// reports success. The provider fields are opaque to the portal.
type Callback struct {
	PaymentID string
	OrderID   string
	Signature string
	Intent    string
}

// Completed is a redeemed callback ready to forward to the backend.
type Completed struct {
	IntentID string
	Proof    dtos.PaymentProof
	Amount   decimal.Decimal
	Plan     constants.PlanType
}

// Service runs the portal's half of the two-phase payment flows. It never
// inspects the provider signature; verification is the backend's job.
type Service struct {
	cfg    config.CheckoutConfig
	signer *common.CheckoutSigner
}

func NewService(cfg config.CheckoutConfig, signer *common.CheckoutSigner) *Service {
	return &Service{cfg: cfg, signer: signer}
}

// Begin turns a backend order into a widget page bound to sess.
func (s *Service) Begin(sess *auth.Session, user *dtos.User, kind string, order *dtos.Order, amount decimal.Decimal, plan constants.PlanType) (*Checkout, error) {
	if order == nil || order.ID == "" {
		return nil, errors.New("backend returned no order")
	}

	intent := &common.CheckoutIntent{
		SessionID: sess.ID,
		OrderID:   order.ID,
		Kind:      kind,
		Amount:    amount.String(),
		Plan:      string(plan),
	}
	signed, err := s.signer.Sign(intent)
	if err != nil {
		return nil, err
	}

	subunits := order.Amount
	if subunits <= 0 {
		subunits = ToSubunits(amount)
	}
	currency := order.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	co := &Checkout{
		Kind:        kind,
		KeyID:       s.cfg.KeyID,
		ScriptURL:   s.cfg.ScriptURL,
		OrderID:     order.ID,
		Amount:      subunits,
		Currency:    currency,
		Description: describe(kind, plan),
		Intent:      signed,
		CallbackURL: "/checkout/" + kind + "/verify",
	}
	if user != nil {
		co.Prefill = *user
	}
	return co, nil
}

func describe(kind string, plan constants.PlanType) string {
	if kind == KindSubscription {
		if p, ok := PlanFor(plan); ok {
			return p.Name + " subscription"
		}
		return "Subscription"
	}
	return "Wallet top-up"
}

// Complete redeems the intent carried by cb for sess and returns the provider
// tokens exactly as received.
func (s *Service) Complete(sess *auth.Session, kind string, cb Callback) (*Completed, error) {
	if strings.TrimSpace(cb.PaymentID) == "" || strings.TrimSpace(cb.OrderID) == "" || strings.TrimSpace(cb.Signature) == "" {
		return nil, ErrMissingProof
	}

	intent, err := s.signer.Redeem(cb.Intent, sess.ID, cb.OrderID)
	if err != nil {
		return nil, err
	}
	if intent.Kind != kind {
		return nil, fmt.Errorf("%w: intent is for %s", common.ErrIntentMismatch, intent.Kind)
	}

	out := &Completed{
		IntentID: intent.ID,
		Proof:    dtos.PaymentProof{
			PaymentID: cb.PaymentID,
			OrderID:   cb.OrderID,
			Signature: cb.Signature,
		},
		Plan:     constants.PlanType(intent.Plan),
	}
	if intent.Amount != "" {
		amt, err := decimal.NewFromString(intent.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: bad amount", common.ErrIntentInvalid)
		}
		out.Amount = amt
	}
	return out, nil
}

// Release makes a redeemed intent usable again when the backend could not
// verify it for a transient reason: no response, a 5xx, or a cancelled call.
// Refusals (4xx) keep the intent spent. It reports whether it released.
func (s *Service) Release(done *Completed, verifyErr error) bool {
	if done == nil || verifyErr == nil {
		return false
	}
	if status := providers.StatusOf(verifyErr); status != 0 && status < http.StatusInternalServerError {
		return false
	}
	s.signer.Release(done.IntentID)
	return true
}
