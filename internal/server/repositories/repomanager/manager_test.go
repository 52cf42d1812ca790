package repomanager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database/dbtest"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

func TestManager_ReturnsRepositories(t *testing.T) {
	db := dbtest.New(t)
	var m RepositoryManager = NewSQLRepositoryManager()

	assert.NotNil(t, m.Users(db))
	assert.NotNil(t, m.Workloads(db))
}

func TestManager_RepositoriesShareTransaction(t *testing.T) {
	db := dbtest.New(t)
	m := NewSQLRepositoryManager()
	ctx := context.Background()
	abort := errors.New("abort")

	err := db.Transaction(ctx, func(ctx context.Context, q database.Querier) error {
		u, err := m.Users(q).Create(ctx, &models.User{Username: "tx_user", PasswordHash: "h", Nama: "Tx"})
		require.NoError(t, err)
		_, err = m.Workloads(q).Create(ctx, &models.Workload{UserID: u.ID, Nama: "w", Type: "Rutin"})
		require.NoError(t, err)
		return abort
	})
	require.ErrorIs(t, err, abort)

	n, err := m.Users(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
