// Package auth reads cashier identity from bearer tokens issued by the
// front-office login service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims defines what is inside the token
type Claims struct {
	CashierID string `json:"cashier_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type Tokens struct {
	key []byte
	ttl time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{key: []byte(secret), ttl: ttl}
}

// Generate signs a token for a cashier. Used by tests and local tooling; the
// login flow lives outside this service.
func (t *Tokens) Generate(cashierID, role string) (string, error) {
	claims := &Claims{
		CashierID: cashierID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cashierID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// Validate checks signature, algorithm and expiry.
func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.CashierID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
