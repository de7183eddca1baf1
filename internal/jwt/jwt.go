package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned for a well-formed token past its expiry
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers malformed tokens, bad signatures and unexpected algorithms
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carries the user id plus the registered iat/exp claims
type Claims struct {
	ID string `json:"id"`
	jwtlib.RegisteredClaims
}

// JWTService signs and verifies session tokens with a server-held secret
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is the validity of issued tokens
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken issues a signed token for userID
func (s *JWTService) GenerateToken(userID string) (string, error) {
	issuedAt := s.now()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		ID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(issuedAt),
			ExpiresAt: jwtlib.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken verifies signature and expiry and returns the decoded claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(tokenString, claims, func(t *jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
