package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
)

func Test_parseEnv(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	setEnv(t, map[string]string{
		"NODE_ENV":                    "production",
		"PORT":                        "8080",
		"DB_TYPE":                     "MySQL",
		"DB_HOST":                     "mysql",
		"DB_PORT":                     "3307",
		"DB_USER":                     "root",
		"DB_PASSWORD":                 "secret",
		"DB_NAME":                     "workload",
		"DB_CONNECTION_LIMIT":         "5",
		"DB_ACQUIRE_TIMEOUT":          "1500",
		"DB_CONNECTION_TIMEOUT":       "10s",
		"DB_MAX_RETRIES":              "2",
		"DB_RETRY_DELAY":              "100",
		"DB_FALLBACK_TO_SQLITE":       "no",
		"JWT_SECRET":                  "s3cr3t",
		"JWT_EXPIRES_IN":              "7d",
		"TOKEN_EXPIRY_WARNING":        "2m",
		"HIDE_FOREIGN_RESOURCES":      "true",
		"REVOCATION":                  "Redis",
		"REDIS_ADDR":                  "cache:6379",
		"REDIS_DB":                    "1",
		"SEED_DEFAULT_USERS":          "true",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "otel:4317",
		"OTEL_EXPORTER_OTLP_INSECURE": "true",
		"METRICS_ENABLED":             "false",
	})
	require.NoError(t, parseEnv(&cfg))

	assert.True(t, cfg.Production())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, database.KindMySQL, cfg.Database.Type)
	assert.Equal(t, "mysql", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Database.ConnectionLimit)
	assert.Equal(t, 1500*time.Millisecond, cfg.Database.AcquireTimeout)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectionTimeout)
	assert.Equal(t, 2, cfg.Database.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Database.RetryDelay)
	assert.True(t, cfg.Database.FallbackToSQLite, "only the literal false disables fallback")
	assert.Equal(t, "s3cr3t", cfg.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 2*time.Minute, cfg.TokenExpiryWarning)
	assert.True(t, cfg.HideForeignResources)
	assert.Equal(t, RevocationRedis, cfg.Revocation)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 1, cfg.RedisDB)
	assert.True(t, cfg.SeedDefaultUsers)
	assert.Equal(t, "otel:4317", cfg.OTLPEndpoint)
	assert.True(t, cfg.OTLPInsecure)
	assert.False(t, cfg.MetricsEnabled)
}

func Test_parseEnv_HTTPAddrBeatsPort(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()
	setEnv(t, map[string]string{"PORT": "8080", "HTTP_ADDR": "127.0.0.1:9999"})
	require.NoError(t, parseEnv(&cfg))
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTPAddr)
}

func Test_parseEnv_FallbackFalse(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()
	setEnv(t, map[string]string{"DB_FALLBACK_TO_SQLITE": "false"})
	require.NoError(t, parseEnv(&cfg))
	assert.False(t, cfg.Database.FallbackToSQLite)
}

func Test_parseEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"DB_PORT":                "abc",
		"DB_ACQUIRE_TIMEOUT":     "soon",
		"JWT_EXPIRES_IN":         "forever",
		"HIDE_FOREIGN_RESOURCES": "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			var cfg Config
			cfg.LoadDefaults()
			setEnv(t, map[string]string{key: value})
			err := parseEnv(&cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func Test_parseEnv_BlankIsUnset(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()
	setEnv(t, map[string]string{"JWT_SECRET": "  ", "DB_PORT": ""})
	require.NoError(t, parseEnv(&cfg))
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 3306, cfg.Database.Port)
}

func Test_parseEnv_DBTypeAliases(t *testing.T) {
	tests := map[string]database.Kind{
		"sqlite3":  database.KindSQLite,
		"MariaDB":  database.KindMySQL,
		"mysql":    database.KindMySQL,
		"postgres": database.Kind("postgres"),
	}
	for value, want := range tests {
		t.Run(value, func(t *testing.T) {
			var cfg Config
			cfg.LoadDefaults()
			setEnv(t, map[string]string{"DB_TYPE": value})
			require.NoError(t, parseEnv(&cfg))
			assert.Equal(t, want, cfg.Database.Type)
		})
	}

	setEnv(t, map[string]string{"DB_TYPE": "postgres"})
	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
