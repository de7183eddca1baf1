package repository

import (
	"context"
	"errors"
	"strings"

	"storefront-be/internal/entities"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup key
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the store rejects a second user with the same email
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the interface for credential store operations.
//
// Implementations must enforce email uniqueness themselves; callers may check
// FindByEmail first, but Create is the authority and returns ErrDuplicateEmail.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*entities.User, error)
	// FindByEmail returns the full record, password hash included
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	// FindByID returns the record without the password hash
	FindByID(ctx context.Context, id string) (*entities.User, error)
}

// NormalizeEmail is the canonical form emails are stored and looked up in
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
