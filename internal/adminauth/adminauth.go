// Package adminauth checks a single bcrypt-hashed static API key, the check
// that httpapi's requireAdmin applies to the mutating POST routes, adapted from
// the teacher's cmd/create_admin_hash/internal/config/auth_config.go
// bcrypt idiom. spec.md §1's admin boundary is a static key check, not a
// full login/session system, so this package deliberately omits session
// cookies, lockouts, and password-reset flows.
package adminauth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost matches the teacher's BcryptCost constant (cmd/create_admin_hash).
const BcryptCost = 12

// ErrInvalidKey is returned when the presented key does not match the
// configured hash.
var ErrInvalidKey = errors.New("adminauth: invalid admin key")

// Checker validates presented admin API keys against a configured bcrypt
// hash.
type Checker struct {
	hash []byte
}

// NewChecker constructs a Checker from a bcrypt hash string (as produced by
// HashKey). With an empty hash, Enabled reports false and Verify rejects
// every key.
func NewChecker(hash string) *Checker {
	return &Checker{hash: []byte(hash)}
}

// Enabled reports whether an admin hash is configured.
func (c *Checker) Enabled() bool {
	return len(c.hash) > 0
}

// Verify checks key against the configured hash.
func (c *Checker) Verify(key string) error {
	if !c.Enabled() {
		return ErrInvalidKey
	}
	if err := bcrypt.CompareHashAndPassword(c.hash, []byte(key)); err != nil {
		return ErrInvalidKey
	}
	return nil
}

// HashKey produces a bcrypt hash of key for operators to place in
// AdminAuthConfig.APIKeyHash (e.g. via a one-off admin CLI command),
// mirroring the teacher's create_admin_hash utility.
func HashKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// constantTimeEqual is used for the rare case a caller needs to compare raw
// tokens (e.g. a request-scoped idempotency key) without bcrypt's
// intentional slowness.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
