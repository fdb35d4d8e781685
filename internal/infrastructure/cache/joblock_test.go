package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestJobLock_TryAcquire(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock := NewJobLock(client)
	ctx := context.Background()

	acquired, err := lock.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	// Second acquire while held fails.
	acquired, err = lock.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	// Different job name is independent.
	acquired, err = lock.TryAcquire(ctx, "lifecycle", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestJobLock_Release(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock := NewJobLock(client)
	ctx := context.Background()

	acquired, err := lock.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, lock.Release(ctx, "reconcile"))

	acquired, err = lock.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestJobLock_ExpiresAfterTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewJobLock(client)
	ctx := context.Background()

	acquired, err := lock.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	mr.FastForward(2 * time.Minute)

	acquired, err = lock.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestJobLock_RemainingTTL(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock := NewJobLock(client)
	ctx := context.Background()

	ttl, err := lock.RemainingTTL(ctx, "reconcile")
	require.NoError(t, err)
	assert.Zero(t, ttl)

	_, err = lock.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)

	ttl, err = lock.RemainingTTL(ctx, "reconcile")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
