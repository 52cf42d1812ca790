package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
)

const (
	HeaderExpiringSoon = "X-Token-Expiring-Soon"
	HeaderExpiresIn    = "X-Token-Expires-In"
)

// ExpiryWarning tells clients, through response headers, that their token
// expires within threshold. The request is served normally either way.
func ExpiryWarning(threshold time.Duration, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.ExpiresAt != nil {
				left := claims.ExpiresAt.Sub(now())
				if left > 0 && left <= threshold {
					w.Header().Set(HeaderExpiringSoon, "true")
					w.Header().Set(HeaderExpiresIn, strconv.Itoa(int(left.Seconds())))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
