package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/timex"
)

// envKeys lists every variable the server reads.
var envKeys = []string{
	"NODE_ENV", "APP_ENV", "LOG_LEVEL", "OTEL_SERVICE_NAME",
	"PORT", "HTTP_ADDR",
	"DB_TYPE", "DB_PATH", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_CONNECTION_LIMIT", "DB_ACQUIRE_TIMEOUT", "DB_CONNECTION_TIMEOUT",
	"DB_MAX_RETRIES", "DB_RETRY_DELAY", "DB_FALLBACK_TO_SQLITE",
	"JWT_SECRET", "JWT_EXPIRES_IN", "TOKEN_EXPIRY_WARNING", "HIDE_FOREIGN_RESOURCES",
	"REVOCATION", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"SEED_DEFAULT_USERS",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "METRICS_ENABLED",
}

func newEnv() *viper.Viper {
	v := viper.New()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// parseEnv overlays environment variables. Timeouts given as bare integers
// are milliseconds; JWT_EXPIRES_IN and TOKEN_EXPIRY_WARNING accept Go
// durations plus a day unit.
func parseEnv(cfg *Config) error {
	e := envReader{v: newEnv()}

	e.str("NODE_ENV", &cfg.Environment)
	e.str("APP_ENV", &cfg.Environment)
	e.str("LOG_LEVEL", &cfg.LogLevel)
	e.str("OTEL_SERVICE_NAME", &cfg.ServiceName)

	if port, ok := e.get("PORT"); ok {
		cfg.HTTPAddr = ":" + strings.TrimPrefix(port, ":")
	}
	e.str("HTTP_ADDR", &cfg.HTTPAddr)

	db := &cfg.Database
	if raw, ok := e.get("DB_TYPE"); ok {
		kind, known := database.ParseKind(raw)
		if !known {
			// left as given so Validate names it
			kind = database.Kind(strings.ToLower(raw))
		}
		db.Type = kind
	}
	e.str("DB_PATH", &db.Path)
	e.str("DB_HOST", &db.Host)
	e.str("DB_USER", &db.User)
	e.str("DB_PASSWORD", &db.Password)
	e.str("DB_NAME", &db.Name)
	e.int("DB_PORT", &db.Port)
	e.int("DB_CONNECTION_LIMIT", &db.ConnectionLimit)
	e.millis("DB_ACQUIRE_TIMEOUT", &db.AcquireTimeout)
	e.millis("DB_CONNECTION_TIMEOUT", &db.ConnectionTimeout)
	e.int("DB_MAX_RETRIES", &db.MaxRetries)
	e.millis("DB_RETRY_DELAY", &db.RetryDelay)
	if v, ok := e.get("DB_FALLBACK_TO_SQLITE"); ok {
		db.FallbackToSQLite = v != "false"
	}

	e.str("JWT_SECRET", &cfg.JWTSecret)
	e.duration("JWT_EXPIRES_IN", &cfg.JWTExpiresIn)
	e.duration("TOKEN_EXPIRY_WARNING", &cfg.TokenExpiryWarning)
	e.bool("HIDE_FOREIGN_RESOURCES", &cfg.HideForeignResources)

	if v, ok := e.get("REVOCATION"); ok {
		cfg.Revocation = strings.ToLower(v)
	}
	e.str("REDIS_ADDR", &cfg.RedisAddr)
	e.str("REDIS_PASSWORD", &cfg.RedisPassword)
	e.int("REDIS_DB", &cfg.RedisDB)

	e.bool("SEED_DEFAULT_USERS", &cfg.SeedDefaultUsers)
	e.str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTLPEndpoint)
	e.bool("OTEL_EXPORTER_OTLP_INSECURE", &cfg.OTLPInsecure)
	e.bool("METRICS_ENABLED", &cfg.MetricsEnabled)

	return e.err
}

// envReader remembers the first malformed variable so parseEnv can report
// it once at the end.
type envReader struct {
	v   *viper.Viper
	err error
}

// get returns the trimmed value of key. Blank values count as unset.
func (e *envReader) get(key string) (string, bool) {
	if !e.v.IsSet(key) {
		return "", false
	}
	s := strings.TrimSpace(e.v.GetString(key))
	return s, s != ""
}

func (e *envReader) fail(key, v string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
}

func (e *envReader) str(key string, dst *string) {
	if s, ok := e.get(key); ok {
		*dst = s
	}
}

func (e *envReader) int(key string, dst *int) {
	s, ok := e.get(key)
	if !ok {
		return
	}
	n, err := cast.ToIntE(s)
	if err != nil {
		e.fail(key, s, err)
		return
	}
	*dst = n
}

func (e *envReader) millis(key string, dst *time.Duration) {
	s, ok := e.get(key)
	if !ok {
		return
	}
	if n, err := cast.ToInt64E(s); err == nil {
		*dst = time.Duration(n) * time.Millisecond
		return
	}
	d, err := timex.ParseDuration(s)
	if err != nil {
		e.fail(key, s, err)
		return
	}
	*dst = d
}

func (e *envReader) duration(key string, dst *time.Duration) {
	s, ok := e.get(key)
	if !ok {
		return
	}
	d, err := timex.ParseDuration(s)
	if err != nil {
		e.fail(key, s, err)
		return
	}
	*dst = d
}

func (e *envReader) bool(key string, dst *bool) {
	s, ok := e.get(key)
	if !ok {
		return
	}
	b, err := cast.ToBoolE(s)
	if err != nil {
		e.fail(key, s, err)
		return
	}
	*dst = b
}
