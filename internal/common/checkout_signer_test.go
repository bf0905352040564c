package common

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutSigner_RedeemOnce(t *testing.T) {
	signer := NewCheckoutSigner([]byte("test-secret"), NewCacheService(time.Minute, time.Minute), time.Minute)

	intent := &CheckoutIntent{SessionID: "s1", OrderID: "order_1", Kind: "deposit", Amount: "250"}
	token, err := signer.Sign(intent)
	require.NoError(t, err)
	require.NotEmpty(t, intent.ID)

	got, err := signer.Redeem(token, "s1", "order_1")
	require.NoError(t, err)
	assert.Equal(t, "deposit", got.Kind)
	assert.Equal(t, "250", got.Amount)

	_, err = signer.Redeem(token, "s1", "order_1")
	assert.ErrorIs(t, err, ErrIntentUsed)
}

func TestCheckoutSigner_RedisMarks(t *testing.T) {
	mr, client := newTestRedis(t)
	signer := NewCheckoutSigner([]byte("test-secret"), NewRedisCacheService(client), time.Minute)

	token, err := signer.Sign(&CheckoutIntent{SessionID: "s1", OrderID: "order_9", Kind: "subscription", Plan: "monthly"})
	require.NoError(t, err)

	got, err := signer.Redeem(token, "s1", "order_9")
	require.NoError(t, err)
	assert.True(t, mr.Exists("used_intent:"+got.ID))

	_, err = signer.Redeem(token, "s1", "order_9")
	assert.ErrorIs(t, err, ErrIntentUsed)
}

func TestCheckoutSigner_Rejections(t *testing.T) {
	signer := NewCheckoutSigner([]byte("test-secret"), NewCacheService(time.Minute, time.Minute), time.Minute)
	token, err := signer.Sign(&CheckoutIntent{SessionID: "s1", OrderID: "order_1", Kind: "deposit"})
	require.NoError(t, err)

	_, err = signer.Redeem(token, "other-session", "order_1")
	assert.ErrorIs(t, err, ErrIntentMismatch)

	_, err = signer.Redeem(token, "s1", "order_2")
	assert.ErrorIs(t, err, ErrIntentMismatch)

	other := NewCheckoutSigner([]byte("another-secret"), NewCacheService(time.Minute, time.Minute), time.Minute)
	_, err = other.Redeem(token, "s1", "order_1")
	assert.ErrorIs(t, err, ErrIntentInvalid)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, intentClaims{
		SessionID: "s1",
		OrderID:   "order_1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = signer.Redeem(expired, "s1", "order_1")
	assert.ErrorIs(t, err, ErrIntentInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, intentClaims{SessionID: "s1", OrderID: "order_1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = signer.Redeem(none, "s1", "order_1")
	assert.ErrorIs(t, err, ErrIntentInvalid)
}
