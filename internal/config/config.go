package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Port            string
	DatabaseURL     string        // mongodb://, postgres:// or memory://
	DatabaseName    string        // Mongo database name
	RedisURL        string        // Optional identity cache
	JWTSecret       string        // Secret key for JWT token signing
	FrontendURL     string        // Allowed CORS origin
	Environment     string        // "production" flips cookie security attributes
	UserCacheTTL    time.Duration // 0 disables the identity cache
	LogLevel        string
	LogFormat       string // json or console
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables or defaults")
	}

	return &Config{
		Port:            getEnv("PORT", "3000"),
		DatabaseURL:     getEnv("DATABASE_URL", getEnv("MONGO_URI", "")),
		DatabaseName:    getEnv("DATABASE_NAME", "storefront"),
		RedisURL:        getEnv("REDIS_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		FrontendURL:     strings.TrimRight(getEnv("FRONTEND_URL", ""), "/"),
		Environment:     strings.ToLower(getEnv("APP_ENV", getEnv("NODE_ENV", EnvDevelopment))),
		UserCacheTTL:    time.Duration(getEnvInt("USER_CACHE_TTL_SECONDS", 60)) * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

// IsProduction reports whether the service runs as a production deployment.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, errors.New("PORT must be numeric"))
	}
	if c.UserCacheTTL < 0 {
		errs = append(errs, errors.New("USER_CACHE_TTL_SECONDS must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
