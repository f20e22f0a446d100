// Package auth issues and verifies the HS256 access tokens that carry an
// account's identity between stateless requests.
package auth

import (
	"context"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the standard registered claims plus the
// account's email and id.
type Claims struct {
	Email     string `json:"email"`
	AccountID string `json:"accountId"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a single HMAC key loaded at startup.
type Issuer struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewIssuer returns an Issuer using the wall clock.
func NewIssuer(secretKey []byte, ttl time.Duration) *Issuer {
	return NewIssuerWithClock(secretKey, ttl, time.Now)
}

// NewIssuerWithClock is NewIssuer with an injectable clock, for tests.
func NewIssuerWithClock(secretKey []byte, ttl time.Duration, now func() time.Time) *Issuer {
	return &Issuer{secretKey: secretKey, ttl: ttl, now: now}
}

// TTL is the lifetime given to every issued token.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token valid in [now, now+ttl).
func (i *Issuer) Issue(accountID, email string) (string, *Claims, error) {
	// NumericDate has second precision; truncate up front so exp-iat == ttl.
	now := i.now().Truncate(time.Second)

	claims := &Claims{
		Email:     email,
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secretKey)
	if err != nil {
		return "", nil, err
	}

	return tokenString, claims, nil
}

// Verify checks algorithm, signature and time window. Every failure is
// reported as common.ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.AccountID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying verified claims.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}
