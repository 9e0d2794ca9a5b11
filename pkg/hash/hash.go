// Package hash provides one-way salted hashing of secrets (login
// passwords, refresh tokens at rest) backed by bcrypt.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// Hasher hashes and verifies secrets with a fixed work factor.
type Hasher struct {
	cost int
}

// New returns a Hasher with the given bcrypt cost. Values outside
// bcrypt's supported range fall back to DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted hash of secret. Output differs on every call;
// verification is deterministic via Verify.
func (h *Hasher) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether secret matches the previously produced hash.
func (h *Hasher) Verify(secret, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret)) == nil
}

// Fingerprint condenses an arbitrarily long secret, such as a signed
// token, to a fixed-size digest. bcrypt rejects inputs over 72 bytes,
// so tokens must be fingerprinted before hashing or verifying.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
