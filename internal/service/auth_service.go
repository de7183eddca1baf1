package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront-be/internal/cache"
	"storefront-be/internal/entities"
	"storefront-be/internal/logutil"
	"storefront-be/internal/models"
	"storefront-be/internal/password"
	"storefront-be/internal/repository"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = repository.ErrUserNotFound
)

// TokenIssuer signs session tokens for a user id
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// AuthResult is a user together with a freshly issued session token
type AuthResult struct {
	User  *entities.User
	Token string
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*AuthResult, error)
	// ResolveUser returns the user named by a verified token, without the password hash
	ResolveUser(ctx context.Context, id string) (*entities.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	hasher   password.Hasher
	tokens   TokenIssuer
	cache    cache.Cache
	cacheTTL time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new auth service. cacheClient may be nil.
func NewAuthService(userRepo repository.UserRepository, hasher password.Hasher, tokens TokenIssuer, cacheClient cache.Cache, cacheTTL time.Duration) AuthService {
	svc := &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
	// Only set cache if provided (allows graceful degradation)
	if cacheClient != nil && cacheTTL > 0 {
		svc.cache = cacheClient
		svc.cacheTTL = cacheTTL
	}
	return svc
}

// Register creates a new user account and signs it in
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*AuthResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	// Check if user already exists. The store's unique constraint is the real guard.
	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, name, req.Email, hashedPassword)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Generate JWT token for automatic login after registration
	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user and returns user info with a session token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*AuthResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		// spend the same bcrypt work as a real check so timing does not reveal registration
		_ = s.hasher.Compare(s.placeholderHash(), req.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	err = s.hasher.Compare(user.PasswordHash, req.Password)
	if errors.Is(err, password.ErrMismatch) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// ResolveUser loads the user for an authenticated request, consulting the cache first
func (s *authService) ResolveUser(ctx context.Context, id string) (*entities.User, error) {
	if s.cache != nil {
		var cached entities.PublicUser
		err := s.cache.GetJSON(ctx, profileCacheKey(id), &cached)
		if err == nil {
			return &entities.User{ID: cached.ID, Name: cached.Name, Email: cached.Email}, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log := logutil.GetOrDefault(ctx)
			log.Warn().Err(err).Str("user_id", id).Msg("Identity cache read failed")
		}
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, profileCacheKey(id), user.Public(), s.cacheTTL); err != nil {
			log := logutil.GetOrDefault(ctx)
			log.Warn().Err(err).Str("user_id", id).Msg("Identity cache write failed")
		}
	}

	return user, nil
}

func (s *authService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("storefront-placeholder-password")
	})
	return s.dummyHash
}

func profileCacheKey(id string) string {
	return "user:profile:" + id
}
