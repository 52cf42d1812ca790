package revocation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/logging"
)

func TestMemory_RevokeAndExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	revoked, err := m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, m.Revoke(ctx, "a", now.Add(time.Hour)))
	revoked, err = m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(time.Hour)
	revoked, err = m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_PrunesExpiredOnWrite(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory()
	m.now = func() time.Time { return now }

	for i := 0; i < pruneEvery-1; i++ {
		require.NoError(t, m.Revoke(ctx, fmt.Sprintf("jti-%d", i), now.Add(time.Minute)))
	}
	now = now.Add(2 * time.Minute)
	require.NoError(t, m.Revoke(ctx, "fresh", now.Add(time.Minute)))

	assert.Equal(t, 1, m.Len())
}

func TestRedis_FailsOpenWhenUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewRedis(rdb, logging.Discard())
	ctx := context.Background()

	err := r.Revoke(ctx, "jti", time.Now().Add(time.Hour))
	require.Error(t, err, "a lost revocation is reported")
	assert.ErrorIs(t, err, common.ErrConnectivity)

	for i := 0; i < 6; i++ {
		revoked, err := r.IsRevoked(ctx, "jti")
		require.NoError(t, err)
		assert.False(t, revoked)
	}
	assert.Equal(t, gobreaker.StateOpen, r.State())
}

func TestRedis_SkipsAlreadyExpired(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewRedis(rdb, logging.Discard())
	require.NoError(t, r.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.Equal(t, gobreaker.StateClosed, r.State())
}
