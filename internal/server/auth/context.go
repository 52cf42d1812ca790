package auth

import (
	"context"

	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

// Identity is the authenticated caller as re-read from the credential store.
type Identity struct {
	ID       int64
	Username string
	Role     models.Role
}

func IdentityOf(u *models.User) Identity {
	return Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

type ctxKey string

const (
	identityKey ctxKey = "identity"
	claimsKey   ctxKey = "claims"
)

// WithIdentity attaches the authenticated identity to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by the authentication
// middleware, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}
