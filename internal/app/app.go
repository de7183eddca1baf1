package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"storefront-be/internal/cache"
	"storefront-be/internal/config"
	"storefront-be/internal/database"
	"storefront-be/internal/jwt"
	"storefront-be/internal/password"
	"storefront-be/internal/server"
	"storefront-be/internal/service"
	"storefront-be/internal/session"
)

// App is the assembled service: store, identity cache, services and router.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  *database.Store
	cache  cache.Cache
	router *gin.Engine
}

// New validates cfg, connects to the store and migrates it, then builds the
// HTTP stack. It fails fast when the store is unreachable.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := database.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info().Str("driver", store.Driver).Msg("Connected to database")

	cacheClient, err := newIdentityCache(ctx, cfg, logger)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}

	tokens := jwt.NewJWTService(cfg.JWTSecret, session.TokenTTL)
	authService := service.NewAuthService(store.Users, password.NewBcryptHasher(bcrypt.DefaultCost), tokens, cacheClient, cfg.UserCacheTTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := server.NewRouter(server.Deps{
		Auth:        authService,
		Tokens:      tokens,
		Cookies:     session.NewTransport(session.NewCookieConfig(cfg.IsProduction())),
		Logger:      logger,
		Registry:    registry,
		FrontendURL: cfg.FrontendURL,
		Ping:        store.Ping,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		cache:  cacheClient,
		router: router,
	}, nil
}

// newIdentityCache prefers Redis and falls back to the in-process cache when
// Redis is not configured or unreachable. A zero TTL disables caching.
func newIdentityCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.Cache, error) {
	if cfg.UserCacheTTL <= 0 {
		logger.Info().Msg("Identity cache disabled")
		return nil, nil
	}
	if cfg.RedisURL != "" {
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info().Msg("Connected to Redis cache")
			return c, nil
		}
		logger.Warn().Err(err).Msg("Failed to connect to Redis, using in-process cache")
	}
	c, err := cache.NewMemoryCache(cfg.UserCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity cache: %w", err)
	}
	return c, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP on the configured port until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info().Str("addr", a.cfg.Addr()).Str("environment", a.cfg.Environment).Msg("Server starting")
	return server.Serve(ctx, a.cfg.Addr(), a.router, a.cfg.ShutdownTimeout)
}

// Close releases the cache and the store connection.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}

// Migrate connects to the configured store, applies pending migrations and disconnects.
func Migrate(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	store, err := database.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close(ctx)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info().Str("driver", store.Driver).Msg("Migrations applied")
	return nil
}
