package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/common"
	"taskbounty/portal/internal/config"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
	"taskbounty/portal/internal/providers"
)

func newTestService() *Service {
	signer := common.NewCheckoutSigner([]byte("secret"), common.NewCacheService(time.Minute, time.Minute), time.Minute)
	return NewService(config.CheckoutConfig{
		KeyID:     "rzp_test_key",
		ScriptURL: "https://checkout.example/v1/checkout.js",
		Currency:  "INR",
	}, signer)
}

func TestPlans(t *testing.T) {
	monthly, ok := PlanFor(constants.PlanMonthly)
	require.True(t, ok)
	assert.Equal(t, int64(29900), ToSubunits(monthly.Price))

	yearly, ok := PlanFor(constants.PlanYearly)
	require.True(t, ok)
	assert.Equal(t, int64(299900), ToSubunits(yearly.Price))

	_, ok = PlanFor("weekly")
	assert.False(t, ok)
	assert.Equal(t, int64(12050), ToSubunits(decimal.RequireFromString("120.50")))
}

func TestCheckout_DepositRoundTrip(t *testing.T) {
	svc := newTestService()
	sess := &auth.Session{ID: "s1", Token: "tok"}

	co, err := svc.Begin(sess, &dtos.User{Name: "Asha"}, KindDeposit, &dtos.Order{ID: "order_1"}, decimal.NewFromInt(250), "")
	require.NoError(t, err)
	assert.Equal(t, int64(25000), co.Amount)
	assert.Equal(t, "INR", co.Currency)
	assert.Equal(t, "/checkout/deposit/verify", co.CallbackURL)
	assert.Equal(t, "Asha", co.Prefill.Name)

	done, err := svc.Complete(sess, KindDeposit, Callback{
		PaymentID: "pay_1", OrderID: "order_1", Signature: "opaque==", Intent: co.Intent,
	})
	require.NoError(t, err)
	assert.Equal(t, dtos.PaymentProof{PaymentID: "pay_1", OrderID: "order_1", Signature: "opaque=="}, done.Proof)
	assert.True(t, done.Amount.Equal(decimal.NewFromInt(250)))

	_, err = svc.Complete(sess, KindDeposit, Callback{PaymentID: "pay_1", OrderID: "order_1", Signature: "opaque==", Intent: co.Intent})
	assert.ErrorIs(t, err, common.ErrIntentUsed)
}

func TestCheckout_SubscriptionKindMustMatch(t *testing.T) {
	svc := newTestService()
	sess := &auth.Session{ID: "s1", Token: "tok"}

	co, err := svc.Begin(sess, nil, KindSubscription, &dtos.Order{ID: "order_2", Amount: 29900, Currency: "INR"}, decimal.NewFromInt(299), constants.PlanMonthly)
	require.NoError(t, err)
	assert.Equal(t, "Monthly subscription", co.Description)

	_, err = svc.Complete(sess, KindDeposit, Callback{PaymentID: "p", OrderID: "order_2", Signature: "s", Intent: co.Intent})
	assert.ErrorIs(t, err, common.ErrIntentMismatch)
}

func TestCheckout_MissingProof(t *testing.T) {
	svc := newTestService()
	_, err := svc.Complete(&auth.Session{ID: "s1"}, KindDeposit, Callback{OrderID: "o", Intent: "x"})
	assert.ErrorIs(t, err, ErrMissingProof)

	_, err = svc.Begin(&auth.Session{ID: "s1"}, nil, KindDeposit, nil, decimal.NewFromInt(1), "")
	assert.Error(t, err)
}

func TestCheckout_ReleaseOnlyOnTransientVerifyFailure(t *testing.T) {
	svc := newTestService()
	sess := &auth.Session{ID: "s1", Token: "tok"}
	co, err := svc.Begin(sess, nil, KindDeposit, &dtos.Order{ID: "order_3"}, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	cb := Callback{PaymentID: "pay_3", OrderID: "order_3", Signature: "sig", Intent: co.Intent}

	done, err := svc.Complete(sess, KindDeposit, cb)
	require.NoError(t, err)
	assert.NotEmpty(t, done.IntentID)

	assert.True(t, svc.Release(done, &providers.ProviderError{Status: 502, Message: "bad gateway"}))
	done, err = svc.Complete(sess, KindDeposit, cb)
	require.NoError(t, err, "a transient backend failure must not spend the intent")

	assert.True(t, svc.Release(done, errors.New("connection reset")))
	done, err = svc.Complete(sess, KindDeposit, cb)
	require.NoError(t, err)

	assert.False(t, svc.Release(done, &providers.ProviderError{Status: 400, Message: "signature mismatch"}))
	assert.False(t, svc.Release(done, nil))
	_, err = svc.Complete(sess, KindDeposit, cb)
	assert.ErrorIs(t, err, common.ErrIntentUsed)
}
