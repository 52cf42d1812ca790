package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/logging"
)

const keyPrefix = "revoked:"

// Redis stores revoked ids as keys that expire together with the token.
// Calls go through a circuit breaker. Lookups fail open: when redis is
// unreachable a token is treated as not revoked and a warning is logged.
// A revocation that could not be recorded is reported to the caller.
type Redis struct {
	rdb    redis.UniversalClient
	cb     *gobreaker.CircuitBreaker
	logger logging.Logger
}

func NewRedis(rdb redis.UniversalClient, logger logging.Logger) *Redis {
	st := gobreaker.Settings{
		Name:        "revocation-redis",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &Redis{rdb: rdb, cb: gobreaker.NewCircuitBreaker(st), logger: logger}
}

func (r *Redis) Revoke(ctx context.Context, jti string, until time.Time) error {
	if !until.After(time.Now()) {
		return nil
	}
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.rdb.SetArgs(ctx, keyPrefix+jti, 1, redis.SetArgs{ExpireAt: until}).Err()
	})
	if err != nil {
		r.logger.Warn(ctx, "token revocation not recorded", "jti", jti, "error", err)
		return fmt.Errorf("%w: revocation not recorded: %v", common.ErrConnectivity, err)
	}
	return nil
}

func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.rdb.Exists(ctx, keyPrefix+jti).Result()
	})
	if err != nil {
		r.logger.Warn(ctx, "revocation lookup failed, allowing token", "jti", jti, "error", err)
		return false, nil
	}
	return res.(int64) > 0, nil
}

// State reports the breaker state, shown by the health endpoint.
func (r *Redis) State() gobreaker.State {
	return r.cb.State()
}
