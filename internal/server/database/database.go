// Package database is the query surface of the workload tracker. One DB
// value serves every repository regardless of whether it is backed by the
// embedded SQLite file or a MySQL server, and it owns the fallback from the
// latter to the former.
package database

import (
	"context"
	"strings"
	"time"
)

// Kind identifies the engine currently serving queries.
type Kind string

const (
	KindSQLite Kind = "sqlite"
	KindMySQL  Kind = "mysql"
)

// ParseKind maps a DB_TYPE style value onto a Kind. Anything unrecognised is
// reported with ok=false so the caller can warn before defaulting.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return KindSQLite, true
	case "mysql", "mariadb":
		return KindMySQL, true
	default:
		return KindSQLite, false
	}
}

// State is the lifecycle of the connection.
type State int32

const (
	StateUninitialized State = iota
	StateConnecting
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Result reports the effect of a write.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Querier runs parameterized statements. Placeholders are "?" on both
// engines.
type Querier interface {
	// Execute runs a write or DDL statement.
	Execute(ctx context.Context, query string, args ...any) (Result, error)

	// Query scans every row into dest, which is a pointer to a slice of
	// structs, maps or scalars.
	Query(ctx context.Context, dest any, query string, args ...any) error

	// GetOne scans the first row into dest. It reports false with a nil error
	// when there are no rows.
	GetOne(ctx context.Context, dest any, query string, args ...any) (bool, error)
}

// DB is the full database surface handed to the rest of the application.
type DB interface {
	Querier

	// Transaction runs fn on a dedicated connection inside a transaction.
	// fn must use the Querier it is given, not the outer DB.
	Transaction(ctx context.Context, fn func(ctx context.Context, q Querier) error) error

	VerifyConnection(ctx context.Context, maxRetries int) error
	HealthCheck(ctx context.Context) Health
	Kind() Kind
	Close() error
}

// Health is the result of a liveness check.
type Health struct {
	Status    string    `json:"status"`
	Database  Kind      `json:"database"`
	Connected bool      `json:"connected"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Healthy reports whether the check succeeded.
func (h Health) Healthy() bool {
	return h.Status == StatusHealthy
}
