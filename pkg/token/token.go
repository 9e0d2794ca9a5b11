// Package token signs and verifies the compact bearer credentials used
// by the identity service. Access and refresh tokens are HS256 JWTs
// with independent signing secrets and lifetimes, so compromise of one
// secret cannot forge the other token type.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: signature
// mismatch, elapsed expiry, wrong signing method, malformed input.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the self-contained payload of an access token.
// Validity is purely a function of signature and expiry; no server
// state backs it.
type AccessClaims struct {
	IdentityID string `json:"uid"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is deliberately minimal: a bare signed refresh token is
// unusable without the server-side stored hash.
type RefreshClaims struct {
	IdentityID string `json:"uid"`
	jwt.RegisteredClaims
}

// Codec signs and verifies both token types.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// SignAccess mints an access token carrying identity, email and role.
func (c *Codec) SignAccess(identityID, email, role string) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		IdentityID: identityID,
		Email:      email,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
}

// SignRefresh mints a refresh token carrying only the identity id.
func (c *Codec) SignRefresh(identityID string) (string, error) {
	now := time.Now()
	claims := &RefreshClaims{
		IdentityID: identityID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
}

// ParseAccess verifies raw against the access secret.
func (c *Codec) ParseAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(raw, claims, c.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies raw against the refresh secret.
func (c *Codec) ParseRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(raw, claims, c.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// parse verifies signature and expiry with no leeway window.
func parse(raw string, claims jwt.Claims, secret []byte) error {
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return ErrInvalidToken
	}
	return nil
}
