package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"environment":            "production",
		"http_addr":              "0.0.0.0:9000",
		"jwt_secret":             "my_secret_key",
		"jwt_expires_in":         "7d",
		"token_expiry_warning":   "90s",
		"hide_foreign_resources": true,
		"revocation":             "redis",
		"redis_addr":             "redis:6379",
		"redis_db":               2,
		"database": map[string]any{
			"type":               "mysql",
			"host":               "db",
			"user":               "wt",
			"password":           "pw",
			"name":               "workload",
			"acquire_timeout":    "30s",
			"retry_delay":        "500ms",
			"fallback_to_sqlite": false,
		},
	})

	t.Run("loads from json", func(t *testing.T) {
		var cfg Config
		cfg.LoadDefaults()
		require.NoError(t, parseJSON(&cfg, []string{"-config", path}))

		assert.Equal(t, EnvProduction, cfg.Environment)
		assert.Equal(t, "0.0.0.0:9000", cfg.HTTPAddr)
		assert.Equal(t, "my_secret_key", cfg.JWTSecret)
		assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
		assert.Equal(t, 90*time.Second, cfg.TokenExpiryWarning)
		assert.True(t, cfg.HideForeignResources)
		assert.Equal(t, RevocationRedis, cfg.Revocation)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, 2, cfg.RedisDB)

		assert.Equal(t, database.KindMySQL, cfg.Database.Type)
		assert.Equal(t, "db", cfg.Database.Host)
		assert.Equal(t, 3306, cfg.Database.Port, "absent fields keep defaults")
		assert.Equal(t, 30*time.Second, cfg.Database.AcquireTimeout)
		assert.Equal(t, 500*time.Millisecond, cfg.Database.RetryDelay)
		assert.False(t, cfg.Database.FallbackToSQLite)
		assert.Equal(t, "data/workload.db", cfg.Database.Path)
	})

	t.Run("no -config means no changes", func(t *testing.T) {
		cfg := Config{HTTPAddr: "defaults:1234", JWTSecret: "key"}
		require.NoError(t, parseJSON(&cfg, []string{"-a", ":1"}))

		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, "key", cfg.JWTSecret)
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		var cfg Config
		assert.Error(t, parseJSON(&cfg, []string{"-c", bad}))
	})

	t.Run("missing file is an error", func(t *testing.T) {
		var cfg Config
		assert.Error(t, parseJSON(&cfg, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})
}
