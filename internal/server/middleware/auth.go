// Package middleware holds the net/http middleware of the API: bearer token
// authentication, role checks, expiry warnings, request ids, access logging
// and metrics.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/logging"
	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
	"github.com/dmitrijs2005/workloadtracker/internal/server/observability"
	"github.com/dmitrijs2005/workloadtracker/internal/server/respond"
	"github.com/dmitrijs2005/workloadtracker/internal/server/revocation"
)

// Verifier checks a session token.
type Verifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLookup re-reads the identity named by a token.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticator resolves bearer tokens into identities.
type Authenticator struct {
	tokens  Verifier
	users   UserLookup
	revoked revocation.Store
	resp    *respond.Writer
	metrics *observability.Metrics
	logger  logging.Logger
}

// NewAuthenticator builds an Authenticator. revoked and metrics may be nil.
func NewAuthenticator(tokens Verifier, users UserLookup, revoked revocation.Store,
	resp *respond.Writer, metrics *observability.Metrics, logger logging.Logger) *Authenticator {
	return &Authenticator{
		tokens:  tokens,
		users:   users,
		revoked: revoked,
		resp:    resp,
		metrics: metrics,
		logger:  logger.With("module", "auth_middleware"),
	}
}

// authFailure is a rejected authentication with the message sent back.
type authFailure struct {
	message string
	err     error
}

func (f *authFailure) Error() string { return f.message }

func (f *authFailure) Unwrap() error { return f.err }

func reject(message string, err error) *authFailure {
	return &authFailure{message: message, err: err}
}

// Authenticate requires a valid bearer token whose subject still exists.
// The identity and claims are attached to the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.resolve(r)
		if err != nil {
			var f *authFailure
			if errors.As(err, &f) {
				a.countFailure(f.message)
				a.logger.Debug(r.Context(), "authentication rejected", "path", r.URL.Path, "reason", f.message)
				a.resp.Message(w, http.StatusUnauthorized, f.message, f.err)
				return
			}
			a.resp.Fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate attaches an identity when a valid token is present
// and otherwise lets the request through anonymously.
func (a *Authenticator) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctx, err := a.resolve(r); err == nil {
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) resolve(r *http.Request) (context.Context, error) {
	ctx := r.Context()

	token := BearerToken(r)
	if token == "" {
		return nil, reject("access token required", common.ErrUnauthorized)
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			return nil, reject("token expired", err)
		case errors.Is(err, common.ErrTokenInvalid):
			return nil, reject("invalid token", err)
		case errors.Is(err, common.ErrTokenNotYetValid):
			return nil, reject("token not active", err)
		default:
			return nil, reject("authentication failed", err)
		}
	}

	if a.revoked != nil && claims.ID != "" {
		revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			a.logger.Warn(ctx, "revocation check failed", "error", err)
		} else if revoked {
			return nil, reject("token revoked", common.ErrTokenRevoked)
		}
	}

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, reject("user not found", err)
		}
		return nil, err
	}

	ctx = auth.WithIdentity(ctx, auth.IdentityOf(user))
	ctx = auth.WithClaims(ctx, claims)
	return ctx, nil
}

func (a *Authenticator) countFailure(reason string) {
	if a.metrics != nil {
		a.metrics.AuthFailure(reason)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthorizeRole admits only identities holding one of roles.
func AuthorizeRole(resp *respond.Writer, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				resp.Message(w, http.StatusUnauthorized, "authentication required", nil)
				return
			}
			if !slices.Contains(roles, id.Role) {
				resp.Message(w, http.StatusForbidden, "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
