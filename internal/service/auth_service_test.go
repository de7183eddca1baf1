package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront-be/internal/cache"
	"storefront-be/internal/entities"
	"storefront-be/internal/jwt"
	"storefront-be/internal/models"
	"storefront-be/internal/password"
	"storefront-be/internal/repository"
)

type fakeUserRepo struct {
	findByEmailOut *entities.User
	findByEmailErr error
	createOut      *entities.User
	createErr      error
	findByIDOut    *entities.User
	findByIDErr    error
	findByIDCalls  int
}

func (f *fakeUserRepo) Create(ctx context.Context, name, email, passwordHash string) (*entities.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	if f.findByEmailErr != nil {
		return nil, f.findByEmailErr
	}
	return f.findByEmailOut, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*entities.User, error) {
	f.findByIDCalls++
	if f.findByIDErr != nil {
		return nil, f.findByIDErr
	}
	copied := *f.findByIDOut
	return &copied, nil
}

type failingIssuer struct{}

func (failingIssuer) GenerateToken(string) (string, error) { return "", errors.New("no key") }

func newTestService(t *testing.T, repo repository.UserRepository) (AuthService, *jwt.JWTService) {
	t.Helper()
	tokens := jwt.NewJWTService("test-secret", 7*24*time.Hour)
	return NewAuthService(repo, password.NewBcryptHasher(bcrypt.MinCost), tokens, nil, 0), tokens
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newTestService(t, repository.NewMemoryUserRepository())

	reg, err := svc.Register(ctx, &models.RegisterRequest{Name: "Ava", Email: "ava@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ava@x.com", reg.User.Email)
	assert.NotEqual(t, "secret123", reg.User.PasswordHash)

	claims, err := tokens.ValidateToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.ID)

	login, err := svc.Login(ctx, &models.LoginRequest{Email: "ava@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.NotEmpty(t, login.Token)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, repository.NewMemoryUserRepository())

	_, err := svc.Register(ctx, &models.RegisterRequest{Name: "Ava", Email: "ava@x.com", Password: "secret123"})
	require.NoError(t, err)

	for _, req := range []*models.RegisterRequest{
		{Name: "Ava", Email: "ava@x.com", Password: "secret123"},
		{Name: "Someone Else", Email: "ava@x.com", Password: "different"},
		{Name: "Case", Email: "AVA@X.COM", Password: "different"},
	} {
		_, err := svc.Register(ctx, req)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	}
}

func TestRegister_StoreRejectsRace(t *testing.T) {
	repo := &fakeUserRepo{findByEmailErr: repository.ErrUserNotFound, createErr: repository.ErrDuplicateEmail}
	svc, _ := newTestService(t, repo)

	_, err := svc.Register(context.Background(), &models.RegisterRequest{Name: "Ava", Email: "ava@x.com", Password: "p"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_MissingFields(t *testing.T) {
	svc, _ := newTestService(t, repository.NewMemoryUserRepository())

	for _, req := range []*models.RegisterRequest{
		{Email: "a@x.com", Password: "p"},
		{Name: "A", Password: "p"},
		{Name: "A", Email: "a@x.com"},
		{Name: "   ", Email: "a@x.com", Password: "p"},
	} {
		_, err := svc.Register(context.Background(), req)
		assert.ErrorIs(t, err, ErrMissingFields)
	}
}

func TestRegister_StoreFailures(t *testing.T) {
	dbDown := errors.New("db down")

	svc, _ := newTestService(t, &fakeUserRepo{findByEmailErr: dbDown})
	_, err := svc.Register(context.Background(), &models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "p"})
	assert.ErrorIs(t, err, dbDown)

	svc, _ = newTestService(t, &fakeUserRepo{findByEmailErr: repository.ErrUserNotFound, createErr: dbDown})
	_, err = svc.Register(context.Background(), &models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "p"})
	assert.ErrorIs(t, err, dbDown)
	assert.NotErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_TokenFailure(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	svc := NewAuthService(repo, password.NewBcryptHasher(bcrypt.MinCost), failingIssuer{}, nil, 0)

	_, err := svc.Register(context.Background(), &models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate token")
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, repository.NewMemoryUserRepository())
	_, err := svc.Register(ctx, &models.RegisterRequest{Name: "Ava", Email: "ava@x.com", Password: "secret123"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, &models.LoginRequest{Email: "ava@x.com", Password: "wrong"})
	_, unknownEmail := svc.Login(ctx, &models.LoginRequest{Email: "nobody@x.com", Password: "secret123"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _ := newTestService(t, repository.NewMemoryUserRepository())

	_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.Login(context.Background(), &models.LoginRequest{Password: "p"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestLogin_StoreFailure(t *testing.T) {
	dbDown := errors.New("db down")
	svc, _ := newTestService(t, &fakeUserRepo{findByEmailErr: dbDown})

	_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "a@x.com", Password: "p"})
	assert.ErrorIs(t, err, dbDown)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveUser(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	svc, _ := newTestService(t, repo)

	reg, err := svc.Register(ctx, &models.RegisterRequest{Name: "Ava", Email: "ava@x.com", Password: "secret123"})
	require.NoError(t, err)

	u, err := svc.ResolveUser(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.User.Public(), u.Public())
	assert.Empty(t, u.PasswordHash)

	_, err = svc.ResolveUser(ctx, "unknown")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveUser_UsesCache(t *testing.T) {
	ctx := context.Background()
	memCache, err := cache.NewMemoryCache(time.Minute)
	require.NoError(t, err)
	defer memCache.Close()

	repo := &fakeUserRepo{findByIDOut: &entities.User{ID: "u-1", Name: "Ava", Email: "ava@x.com", PasswordHash: "hash"}}
	svc := NewAuthService(repo, password.NewBcryptHasher(bcrypt.MinCost), jwt.NewJWTService("k", time.Hour), memCache, time.Minute)

	first, err := svc.ResolveUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, first.PasswordHash)

	second, err := svc.ResolveUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, first.Public(), second.Public())
	assert.Equal(t, 1, repo.findByIDCalls, "second lookup should be served from cache")

	repo.findByIDErr = repository.ErrUserNotFound
	_, err = svc.ResolveUser(ctx, "u-2")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNewAuthService_ZeroTTLDisablesCache(t *testing.T) {
	memCache, err := cache.NewMemoryCache(time.Minute)
	require.NoError(t, err)
	defer memCache.Close()

	svc := NewAuthService(repository.NewMemoryUserRepository(), password.NewBcryptHasher(bcrypt.MinCost), jwt.NewJWTService("k", time.Hour), memCache, 0)
	assert.Nil(t, svc.(*authService).cache)
}
