// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/workloadtracker/internal/logging"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

// New returns a migrated in-memory SQLite database closed at test cleanup.
// It also lowers the bcrypt cost so tests hashing passwords stay fast.
func New(t testing.TB) *database.Database {
	t.Helper()

	models.BcryptCost = bcrypt.MinCost

	cfg := database.DefaultConfig()
	cfg.Path = ":memory:"
	cfg.MaxRetries = 1
	cfg.AcquireTimeout = 5 * time.Second

	db, err := database.Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
