package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/workloadtracker/internal/logging"
	"github.com/dmitrijs2005/workloadtracker/internal/server/config"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Database.Path = ":memory:"
	cfg.Database.MaxRetries = 1
	cfg.SeedDefaultUsers = true
	cfg.Revocation = config.RevocationMemory
	return cfg
}

func TestApp_ServesAndShutsDown(t *testing.T) {
	models.BcryptCost = bcrypt.MinCost

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, testConfig(), logging.Discard())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		res, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		defer res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	res, err := http.Post(base+"/api/auth/login", "application/json",
		strings.NewReader(`{"username":"admin","password":"admin123"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode, "seeded admin can log in")

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.Success)

	mres, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	mres.Body.Close()
	assert.Equal(t, http.StatusOK, mres.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("app did not stop")
	}

	assert.Equal(t, database.StateClosed, app.db.State())
}

func TestApp_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	cfg.SeedDefaultUsers = false

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, cfg, logging.Discard())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Serve(ctx, ln) }()

	var status int
	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + ln.Addr().String() + "/metrics")
		if err != nil {
			return false
		}
		res.Body.Close()
		status = res.StatusCode
		return true
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, http.StatusNotFound, status)

	cancel()
	require.NoError(t, <-errCh)
}

func TestNewApp_DatabaseFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Type = database.KindMySQL
	cfg.Database.FallbackToSQLite = false

	_, err := NewApp(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
}
