package database

import (
	"net"
	"strconv"
	"time"
)

// Config selects and tunes the engine.
//
// Fields:
//   - Type: requested engine. A MySQL request may still end up on SQLite
//     when FallbackToSQLite is set.
//   - Path: SQLite file, or ":memory:".
//   - Host/Port/User/Password/Name: MySQL connection parameters.
//   - ConnectionLimit: max open connections for MySQL.
//   - AcquireTimeout: upper bound for every single statement, including the
//     wait for a pooled connection.
//   - ConnectionTimeout: dial timeout for MySQL.
//   - MaxRetries / RetryDelay: attempts per connection check and per
//     statement outside a transaction, and the base of the exponential
//     backoff between them.
type Config struct {
	Type              Kind
	Path              string
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	ConnectionLimit   int
	AcquireTimeout    time.Duration
	ConnectionTimeout time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	FallbackToSQLite  bool
}

// DefaultConfig mirrors the documented environment defaults.
func DefaultConfig() Config {
	return Config{
		Type:              KindSQLite,
		Path:              "data/workload.db",
		Port:              3306,
		ConnectionLimit:   20,
		AcquireTimeout:    60 * time.Second,
		ConnectionTimeout: 60 * time.Second,
		MaxRetries:        5,
		RetryDelay:        2 * time.Second,
		FallbackToSQLite:  true,
	}
}

// mysqlConfigured reports whether every MySQL parameter needed to connect is
// present.
func (c Config) mysqlConfigured() bool {
	return c.Host != "" && c.User != "" && c.Password != "" && c.Name != ""
}

func (c Config) mysqlAddr() string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c Config) inMemory() bool {
	return c.Path == ":memory:" || c.Path == ""
}
