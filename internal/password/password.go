// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned by Compare when the password does not match the hash.
var ErrMismatch = errors.New("password mismatch")

// DefaultCost matches 10 salt rounds.
const DefaultCost = bcrypt.DefaultCost

// MaxBytes is the longest input bcrypt reads. Longer passwords are cut to it.
const MaxBytes = 72

// Hasher turns plaintext passwords into salted one-way hashes and checks them.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt hasher. Costs outside bcrypt's range fall back to DefaultCost.
func NewBcryptHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

// Hash generates a fresh salt and hashes plain with it
func (h *bcryptHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(truncate(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare returns nil when plain matches hash and ErrMismatch when it does not
func (h *bcryptHasher) Compare(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncate(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	return nil
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > MaxBytes {
		b = b[:MaxBytes]
	}
	return b
}
