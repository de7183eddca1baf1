package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-be/internal/entities"
)

type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entities.User
	byEmail map[string]string
}

// NewMemoryUserRepository creates an in-process user repository. Data is lost on restart.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]*entities.User),
		byEmail: make(map[string]string),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, name, email, passwordHash string) (*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[user.ID] = user
	r.byEmail[email] = user.ID

	copied := *user
	return &copied, nil
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	copied.PasswordHash = ""
	return &copied, nil
}
