package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"storefront-be/internal/controllers"
	"storefront-be/internal/logutil"
	"storefront-be/internal/middleware"
	"storefront-be/internal/service"
	"storefront-be/internal/session"
)

// Deps is everything the HTTP layer needs from the rest of the application.
type Deps struct {
	Auth     service.AuthService
	Tokens   middleware.TokenVerifier
	Cookies  *session.Transport
	Logger   zerolog.Logger
	Registry *prometheus.Registry

	// FrontendURL is the single origin allowed to make credentialed requests. Empty disables CORS.
	FrontendURL string
	// Ping reports store health for /health. Optional.
	Ping func(ctx context.Context) error
}

// NewRouter wires middleware and routes into a gin engine.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	metrics := middleware.NewMetrics(deps.Registry)

	router := gin.New()
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		log := logutil.GetOrDefault(c.Request.Context())
		log.Error().Interface("panic", err).Msg("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": middleware.MsgInternal})
	}))
	router.Use(metrics.Middleware())
	if deps.FrontendURL != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{deps.FrontendURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", healthHandler(deps.Ping))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry})))

	authController := controllers.NewAuthController(deps.Auth, deps.Cookies)
	gate := middleware.AuthMiddleware(deps.Tokens, deps.Auth, deps.Cookies, metrics)

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
		auth.GET("/me", gate, authController.Me)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})

	return router
}

func healthHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log := logutil.GetOrDefault(ctx)
				log.Warn().Err(err).Msg("Health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
