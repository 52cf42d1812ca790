// Package auth issues and verifies session tokens and carries the resolved
// identity through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/logging"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

const (
	// DefaultSecret is the placeholder secret shipped in the defaults. Running
	// production with it is allowed but logged loudly.
	DefaultSecret = "your_default_secret_change_in_production"

	DefaultLifetime = 24 * time.Hour
)

// Claims carried by a session token. Subject holds the user id as a decimal
// string; UserID repeats it for clients that do not parse "sub".
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64       `json:"userId"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Token is a freshly signed session token.
type Token struct {
	Value     string
	ExpiresAt time.Time
	ExpiresIn time.Duration
}

// TokenService signs and verifies HS256 session tokens. It keeps no state
// between calls beyond the secret, lifetime and clock it was built with.
type TokenService struct {
	secret     []byte
	lifetime   time.Duration
	now        func() time.Time
	logger     logging.Logger
	production bool
}

type Option func(*TokenService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *TokenService) { s.logger = l }
}

// WithProduction marks the service as running in a production environment.
func WithProduction(production bool) Option {
	return func(s *TokenService) { s.production = production }
}

// NewTokenService builds a TokenService. A non-positive lifetime selects
// DefaultLifetime.
func NewTokenService(secret string, lifetime time.Duration, opts ...Option) *TokenService {
	s := &TokenService{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.lifetime <= 0 {
		s.lifetime = DefaultLifetime
	}

	if s.production && s.logger != nil {
		switch secret {
		case "":
			s.logger.Error(context.Background(), "JWT_SECRET is empty in production: tokens cannot be issued")
		case DefaultSecret:
			s.logger.Warn(context.Background(),
				"!!! JWT_SECRET is the built-in placeholder in production: anyone can forge tokens, set JWT_SECRET !!!")
		}
	}
	return s
}

// Issue signs a token for user. iat and nbf are both the current time.
func (s *TokenService) Issue(user *models.User) (Token, error) {
	if len(s.secret) == 0 {
		return Token{}, fmt.Errorf("%w: signing secret is not configured", common.ErrInternal)
	}
	if user == nil {
		return Token{}, fmt.Errorf("%w: no user to issue a token for", common.ErrInternal)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			ID:        uuid.NewString(),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("%w: sign token: %v", common.ErrInternal, err)
	}

	return Token{
		Value:     value,
		ExpiresAt: claims.ExpiresAt.Time,
		ExpiresIn: s.lifetime,
	}, nil
}

// Verify checks signature, algorithm and the time window of tokenString.
// Failures are one of common.ErrTokenExpired, common.ErrTokenNotYetValid or
// common.ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return nil, common.ErrTokenNotYetValid
	default:
		return nil, fmt.Errorf("%w: %v", common.ErrTokenInvalid, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 || (claims.UserID != 0 && claims.UserID != id) {
		return nil, fmt.Errorf("%w: bad subject %q", common.ErrTokenInvalid, claims.Subject)
	}
	claims.UserID = id

	return claims, nil
}
