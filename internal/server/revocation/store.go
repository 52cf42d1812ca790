// Package revocation keeps a denylist of token ids (jti) that were logged
// out before they expired.
package revocation

import (
	"context"
	"time"
)

// Store records revoked token ids until their natural expiry.
type Store interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
