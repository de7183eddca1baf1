package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "MONGO_URI", "JWT_SECRET", "APP_ENV", "NODE_ENV", "USER_CACHE_TTL_SECONDS", "FRONTEND_URL"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "storefront", cfg.DatabaseName)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, time.Minute, cfg.UserCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "Production")
	t.Setenv("FRONTEND_URL", "https://shop.example.com/")
	t.Setenv("USER_CACHE_TTL_SECONDS", "0")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://shop.example.com", cfg.FrontendURL)
	assert.Zero(t, cfg.UserCacheTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_AppEnvWinsOverNodeEnv(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("NODE_ENV", "production")

	assert.False(t, Load().IsProduction())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Port: "abc"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "PORT must be numeric")

	cfg = &Config{Port: "3000", DatabaseURL: "memory://", JWTSecret: "k"}
	assert.NoError(t, cfg.Validate())
}
