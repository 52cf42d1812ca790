package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
)

// MaxBackoff caps the delay between connection attempts.
const MaxBackoff = 5 * time.Second

// NewBackoff is the delay sequence between attempts: base, 2*base, 4*base
// and so on, capped at MaxBackoff. A non-positive base means one second.
func NewBackoff(base time.Duration) retry.Backoff {
	if base <= 0 {
		base = time.Second
	}
	return retry.WithCappedDuration(MaxBackoff, retry.NewExponential(base))
}

// Backoff returns the delay before retry number attempt (0 based).
func Backoff(attempt int, base time.Duration) time.Duration {
	b := NewBackoff(base)
	d, _ := b.Next()
	for i := 0; i < attempt; i++ {
		d, _ = b.Next()
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ping(ctx context.Context, q *querier) error {
	var one int
	ok, err := q.GetOne(ctx, &one, "SELECT 1")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("SELECT 1 returned no rows")
	}
	return nil
}

// attempts runs fn up to maxRetries times, sleeping between failures. It
// stops early when fn succeeds or retryable reports false for its error.
func (d *Database) attempts(ctx context.Context, maxRetries int, fn func() error,
	retryable func(error) bool, onRetry func(attempt int, delay time.Duration, err error)) (int, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	b := retry.WithMaxRetries(uint64(maxRetries-1), NewBackoff(d.cfg.RetryDelay))

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !retryable(err) {
			return attempt, err
		}

		delay, stop := b.Next()
		if stop {
			return attempt, err
		}
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
		if serr := d.sleep(ctx, delay); serr != nil {
			return attempt, fmt.Errorf("%w: interrupted: %v", err, serr)
		}
	}
}

// verify pings q up to maxRetries times with exponential backoff between
// attempts.
func (d *Database) verify(ctx context.Context, kind Kind, q *querier, maxRetries int) error {
	n, err := d.attempts(ctx, maxRetries,
		func() error { return ping(ctx, q) },
		func(error) bool { return ctx.Err() == nil },
		func(attempt int, delay time.Duration, err error) {
			d.logger.Warn(ctx, "database connection attempt failed",
				"kind", kind, "attempt", attempt, "max_retries", maxRetries, "retry_in", delay, "error", err)
		})
	if err == nil {
		if n > 1 {
			d.logger.Info(ctx, "database connection verified", "kind", kind, "attempts", n)
		}
		return nil
	}
	if errors.Is(err, common.ErrConnectivity) {
		return fmt.Errorf("%s unreachable after %d attempts: %w", kind, n, err)
	}
	return fmt.Errorf("%w: %s unreachable after %d attempts: %v", common.ErrConnectivity, kind, n, err)
}

// VerifyConnection round-trips a trivial query, retrying with backoff. When
// every attempt fails on MySQL and fallback is enabled, the database switches
// to SQLite and reports the new kind; otherwise a Connectivity error is
// returned.
func (d *Database) VerifyConnection(ctx context.Context, maxRetries int) error {
	d.mu.RLock()
	q, err := d.active()
	kind := d.kind
	d.mu.RUnlock()
	if err != nil {
		return err
	}

	err = d.verify(ctx, kind, q, maxRetries)
	if err == nil {
		d.state.Store(int32(StateReady))
		return nil
	}
	if kind != KindMySQL || !d.cfg.FallbackToSQLite {
		d.state.Store(int32(StateFailed))
		return err
	}

	d.logger.Warn(ctx, "mysql connection lost, falling back to sqlite", "error", err)
	d.state.Store(int32(StateConnecting))
	if ferr := d.start(ctx, KindSQLite); ferr != nil {
		d.state.Store(int32(StateFailed))
		return fmt.Errorf("%w; fallback to sqlite failed: %v", err, ferr)
	}
	d.fellBack(KindMySQL, KindSQLite)
	d.state.Store(int32(StateReady))
	return nil
}

// reconnect runs VerifyConnection once for every caller that lost the
// connection at the same time.
func (d *Database) reconnect(ctx context.Context) error {
	_, err, _ := d.reconnecting.Do("verify", func() (any, error) {
		return nil, d.VerifyConnection(context.WithoutCancel(ctx), d.cfg.MaxRetries)
	})
	return err
}

// withRetry runs fn against the active handle. Connectivity failures are
// retried with backoff; once the retries are spent the connection is
// re-verified, which may fall back to SQLite, and fn gets one last try.
func (d *Database) withRetry(ctx context.Context, fn func(q *querier) error) error {
	run := func() error {
		d.mu.RLock()
		defer d.mu.RUnlock()

		q, err := d.active()
		if err != nil {
			return err
		}
		return fn(q)
	}
	retryable := func(err error) bool {
		return errors.Is(err, common.ErrConnectivity) && !errors.Is(err, errClosed) && ctx.Err() == nil
	}

	_, err := d.attempts(ctx, d.cfg.MaxRetries, run, retryable,
		func(attempt int, delay time.Duration, err error) {
			d.logger.Warn(ctx, "database call failed, retrying",
				"kind", d.Kind(), "attempt", attempt, "retry_in", delay, "error", err)
		})
	if err == nil || !retryable(err) {
		return err
	}

	if verr := d.reconnect(ctx); verr != nil {
		d.logger.Error(ctx, "database unavailable", "kind", d.Kind(), "error", verr)
		return err
	}
	return run()
}
