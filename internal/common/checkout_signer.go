package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskbounty/portal/internal/constants"
)

var (
	ErrIntentInvalid  = errors.New("invalid checkout intent")
	ErrIntentMismatch = errors.New("checkout intent does not match this session or order")
	ErrIntentUsed     = errors.New("checkout intent already used")
)

// CheckoutIntent binds a backend payment order to the session that opened the
// checkout widget. It says nothing about whether the payment succeeded.
type CheckoutIntent struct {
	ID        string
	SessionID string
	OrderID   string
	Kind      string
	Amount    string
	Plan      string
	ExpiresAt time.Time
}

type intentClaims struct {
	SessionID string `json:"sid"`
	OrderID   string `json:"oid"`
	Kind      string `json:"kind"`
	Amount    string `json:"amt,omitempty"`
	Plan      string `json:"plan,omitempty"`
	jwt.RegisteredClaims
}

// CheckoutSigner issues and redeems single-use checkout intents.
type CheckoutSigner struct {
	secretKey []byte
	used      CacheInterface
	ttl       time.Duration
}

func NewCheckoutSigner(secretKey []byte, used CacheInterface, ttl time.Duration) *CheckoutSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CheckoutSigner{secretKey: secretKey, used: used, ttl: ttl}
}

// Sign returns the signed intent. ID and ExpiresAt are filled in.
func (s *CheckoutSigner) Sign(in *CheckoutIntent) (string, error) {
	now := time.Now()
	in.ID = uuid.New().String()
	in.ExpiresAt = now.Add(s.ttl)

	claims := intentClaims{
		SessionID: in.SessionID,
		OrderID:   in.OrderID,
		Kind:      in.Kind,
		Amount:    in.Amount,
		Plan:      in.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        in.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(in.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign checkout intent: %w", err)
	}
	return signed, nil
}

// Release clears the used mark of intentID so the same callback can be
// redeemed again.
func (s *CheckoutSigner) Release(intentID string) {
	if intentID == "" {
		return
	}
	s.used.Delete(string(constants.CachePrefixUsedIntent) + intentID)
}

// Redeem validates the intent against the calling session and the order id
// the widget reported, and marks it used. A second redeem fails.
func (s *CheckoutSigner) Redeem(tokenString, sessionID, orderID string) (*CheckoutIntent, error) {
	var claims intentClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentInvalid, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrIntentInvalid)
	}
	if claims.SessionID != sessionID || claims.OrderID != orderID {
		return nil, ErrIntentMismatch
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		ttl = time.Second
	}
	fresh, err := s.used.SetIfAbsent(string(constants.CachePrefixUsedIntent)+claims.ID, "1", ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to mark checkout intent used: %w", err)
	}
	if !fresh {
		return nil, ErrIntentUsed
	}

	return &CheckoutIntent{
		ID:        claims.ID,
		SessionID: claims.SessionID,
		OrderID:   claims.OrderID,
		Kind:      claims.Kind,
		Amount:    claims.Amount,
		Plan:      claims.Plan,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
