// Package cryptox wraps bcrypt for account password hashing.
package cryptox

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLen is the longest password bcrypt accepts, in bytes.
const MaxPasswordLen = 72

// ErrMismatch reports a password that does not match its hash.
var ErrMismatch = errors.New("password mismatch")

// PasswordHasher hashes and checks passwords at a fixed bcrypt cost.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordHasher returns a hasher for cost. Values outside bcrypt's
// range fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a bcrypt digest of password with a fresh salt.
func (h *PasswordHasher) Hash(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, h.cost)
}

// Compare returns nil when password matches hash and ErrMismatch otherwise.
// A malformed hash is reported as ErrMismatch as well.
func (h *PasswordHasher) Compare(hash, password []byte) error {
	if err := bcrypt.CompareHashAndPassword(hash, password); err != nil {
		return ErrMismatch
	}
	return nil
}

// CompareDummy spends about as long as Compare against a real hash and
// always fails. Used when the account does not exist so login timing stays
// uniform.
func (h *PasswordHasher) CompareDummy(password []byte) error {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("postboard-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, password)
	return ErrMismatch
}
