package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HealthCheck pings the active engine. A failed ping re-verifies the
// connection with retries, which may fall back to SQLite, and pings again.
// It never panics or returns an error: every failure is reported as an
// unhealthy Health.
func (d *Database) HealthCheck(ctx context.Context) (h Health) {
	h = Health{Status: StatusUnhealthy, Timestamp: time.Now().UTC()}

	defer func() {
		if p := recover(); p != nil {
			h.Status = StatusUnhealthy
			h.Connected = false
			h.Error = fmt.Sprintf("health check panicked: %v", p)
		}
	}()

	kind, err := d.pingActive(ctx)
	if err != nil && !errors.Is(err, errClosed) {
		d.logger.Warn(ctx, "health check failed, verifying connection", "kind", kind, "error", err)
		if verr := d.reconnect(ctx); verr == nil {
			kind, err = d.pingActive(ctx)
		} else {
			err = verr
			kind = d.Kind()
		}
	}

	h.Database = kind
	if err != nil {
		h.Error = err.Error()
		return h
	}

	h.Status = StatusHealthy
	h.Connected = true
	return h
}

func (d *Database) pingActive(ctx context.Context) (Kind, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	q, err := d.active()
	if err != nil {
		return d.kind, err
	}
	return d.kind, ping(ctx, q)
}
