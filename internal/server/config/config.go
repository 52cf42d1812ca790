// Package config handles configuration for the server component, including
// defaults, JSON overlay, environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Revocation backends.
const (
	RevocationNone   = "none"
	RevocationMemory = "memory"
	RevocationRedis  = "redis"
)

// Config holds runtime settings for the workload tracker server.
//
// Fields:
//   - Environment: "development" or "production". Production hides raw error
//     text from responses and switches logs to JSON.
//   - HTTPAddr: bind address for the REST endpoint.
//   - Database: engine selection and tuning, see database.Config.
//   - JWTSecret / JWTExpiresIn: HS256 signing secret and token lifetime.
//   - TokenExpiryWarning: remaining lifetime below which responses carry the
//     expiring-soon headers.
//   - HideForeignResources: answer 404 instead of 403 for other users'
//     workloads.
//   - Revocation / Redis*: optional jti denylist on logout.
//   - OTLPEndpoint / OTLPInsecure: tracing exporter, disabled when empty.
type Config struct {
	Environment          string
	LogLevel             string
	ServiceName          string
	HTTPAddr             string
	Database             database.Config
	JWTSecret            string
	JWTExpiresIn         time.Duration
	TokenExpiryWarning   time.Duration
	HideForeignResources bool
	Revocation           string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	SeedDefaultUsers     bool
	OTLPEndpoint         string
	OTLPInsecure         bool
	MetricsEnabled       bool
}

// LoadDefaults populates Config with development defaults.
// NOTE: the JWT secret is a placeholder and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.Environment = EnvDevelopment
	c.LogLevel = "info"
	c.ServiceName = "workloadtracker"
	c.HTTPAddr = ":3001"
	c.Database = database.DefaultConfig()
	c.JWTSecret = auth.DefaultSecret
	c.JWTExpiresIn = auth.DefaultLifetime
	c.TokenExpiryWarning = 5 * time.Minute
	c.Revocation = RevocationNone
	c.RedisAddr = "localhost:6379"
	c.MetricsEnabled = true
}

// Production reports whether the server runs with production semantics.
func (c *Config) Production() bool {
	return c.Environment == EnvProduction
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case database.KindSQLite, database.KindMySQL:
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type)
	}
	switch c.Revocation {
	case RevocationNone, RevocationMemory, RevocationRedis:
	default:
		return fmt.Errorf("unsupported REVOCATION %q", c.Revocation)
	}
	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("token lifetime must be positive, got %s", c.JWTExpiresIn)
	}
	if c.Production() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// Load builds a Config by applying defaults, then overlaying values from an
// optional JSON file, the environment and finally command-line flags.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
