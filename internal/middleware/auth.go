package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-be/internal/entities"
	"storefront-be/internal/jwt"
	"storefront-be/internal/logutil"
	"storefront-be/internal/models"
	"storefront-be/internal/repository"
	"storefront-be/internal/session"
)

// Context keys set by the auth gate
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

const (
	MsgNoToken      = "Not authorized, no token provided"
	MsgTokenFailed  = "Not authorized, token failed"
	MsgTokenExpired = "Not authorized, token expired"
	MsgUserNotFound = "Not authorized, user not found"
	MsgInternal     = "Internal server error"
)

// TokenVerifier checks a session token and returns its claims
type TokenVerifier interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// UserResolver loads the identity named by a verified token
type UserResolver interface {
	ResolveUser(ctx context.Context, id string) (*entities.User, error)
}

// AuthMiddleware rejects requests without a valid session cookie and attaches
// the resolved user to the context. metrics may be nil.
func AuthMiddleware(verifier TokenVerifier, users UserResolver, transport *session.Transport, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logutil.GetOrDefault(ctx)

		token, err := transport.Read(c.Request)
		if err != nil {
			reject(c, metrics, http.StatusUnauthorized, "no_token", MsgNoToken)
			return
		}

		claims, err := verifier.ValidateToken(token)
		if errors.Is(err, jwt.ErrTokenExpired) {
			reject(c, metrics, http.StatusUnauthorized, "token_expired", MsgTokenExpired)
			return
		}
		if err != nil {
			log.Debug().Err(err).Msg("Token verification failed")
			reject(c, metrics, http.StatusUnauthorized, "token_failed", MsgTokenFailed)
			return
		}

		user, err := users.ResolveUser(ctx, claims.ID)
		if errors.Is(err, repository.ErrUserNotFound) {
			reject(c, metrics, http.StatusUnauthorized, "user_not_found", MsgUserNotFound)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.ID).Msg("Failed to resolve user for session")
			_ = c.Error(err)
			reject(c, metrics, http.StatusInternalServerError, "store_error", MsgInternal)
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Request = c.Request.WithContext(logutil.WithLogger(ctx, log.With().Str("user_id", user.ID).Logger()))
		c.Next()
	}
}

// CurrentUser returns the user attached by AuthMiddleware
func CurrentUser(c *gin.Context) (*entities.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entities.User)
	return user, ok && user != nil
}

func reject(c *gin.Context, metrics *Metrics, status int, reason, message string) {
	metrics.RecordAuthRejection(reason)
	c.AbortWithStatusJSON(status, models.MessageResponse{Message: message})
}
