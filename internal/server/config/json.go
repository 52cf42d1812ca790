package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/workloadtracker/internal/flagx"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/timex"
)

// JSONConfig is the on-disk shape of the configuration file. Every field is
// optional; absent fields keep the value from the previous layer.
type JSONConfig struct {
	Environment          *string         `json:"environment"`
	LogLevel             *string         `json:"log_level"`
	HTTPAddr             *string         `json:"http_addr"`
	Database             *JSONDatabase   `json:"database"`
	JWTSecret            *string         `json:"jwt_secret"`
	JWTExpiresIn         *timex.Duration `json:"jwt_expires_in"`
	TokenExpiryWarning   *timex.Duration `json:"token_expiry_warning"`
	HideForeignResources *bool           `json:"hide_foreign_resources"`
	Revocation           *string         `json:"revocation"`
	RedisAddr            *string         `json:"redis_addr"`
	RedisPassword        *string         `json:"redis_password"`
	RedisDB              *int            `json:"redis_db"`
	SeedDefaultUsers     *bool           `json:"seed_default_users"`
	OTLPEndpoint         *string         `json:"otlp_endpoint"`
	OTLPInsecure         *bool           `json:"otlp_insecure"`
	MetricsEnabled       *bool           `json:"metrics_enabled"`
}

type JSONDatabase struct {
	Type              *string         `json:"type"`
	Path              *string         `json:"path"`
	Host              *string         `json:"host"`
	Port              *int            `json:"port"`
	User              *string         `json:"user"`
	Password          *string         `json:"password"`
	Name              *string         `json:"name"`
	ConnectionLimit   *int            `json:"connection_limit"`
	AcquireTimeout    *timex.Duration `json:"acquire_timeout"`
	ConnectionTimeout *timex.Duration `json:"connection_timeout"`
	MaxRetries        *int            `json:"max_retries"`
	RetryDelay        *timex.Duration `json:"retry_delay"`
	FallbackToSQLite  *bool           `json:"fallback_to_sqlite"`
}

// parseJSON overlays the file named by -c / -config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	var c JSONConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	set(&cfg.Environment, c.Environment)
	set(&cfg.LogLevel, c.LogLevel)
	set(&cfg.HTTPAddr, c.HTTPAddr)
	set(&cfg.JWTSecret, c.JWTSecret)
	setDuration(&cfg.JWTExpiresIn, c.JWTExpiresIn)
	setDuration(&cfg.TokenExpiryWarning, c.TokenExpiryWarning)
	set(&cfg.HideForeignResources, c.HideForeignResources)
	set(&cfg.Revocation, c.Revocation)
	set(&cfg.RedisAddr, c.RedisAddr)
	set(&cfg.RedisPassword, c.RedisPassword)
	set(&cfg.RedisDB, c.RedisDB)
	set(&cfg.SeedDefaultUsers, c.SeedDefaultUsers)
	set(&cfg.OTLPEndpoint, c.OTLPEndpoint)
	set(&cfg.OTLPInsecure, c.OTLPInsecure)
	set(&cfg.MetricsEnabled, c.MetricsEnabled)

	if d := c.Database; d != nil {
		db := &cfg.Database
		if d.Type != nil {
			db.Type = database.Kind(*d.Type)
		}
		set(&db.Path, d.Path)
		set(&db.Host, d.Host)
		set(&db.Port, d.Port)
		set(&db.User, d.User)
		set(&db.Password, d.Password)
		set(&db.Name, d.Name)
		set(&db.ConnectionLimit, d.ConnectionLimit)
		setDuration(&db.AcquireTimeout, d.AcquireTimeout)
		setDuration(&db.ConnectionTimeout, d.ConnectionTimeout)
		set(&db.MaxRetries, d.MaxRetries)
		setDuration(&db.RetryDelay, d.RetryDelay)
		set(&db.FallbackToSQLite, d.FallbackToSQLite)
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
