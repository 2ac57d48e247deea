package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hakote/Hakote/internal/config"
	"github.com/Hakote/Hakote/internal/lock"
	"github.com/Hakote/Hakote/internal/queue"
)

func TestLocalLockWithoutRedis(t *testing.T) {
	factory, client, err := newLockFactory(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)

	first, second := factory(), factory()
	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, first.Release(context.Background()))
}

func TestRedisLockShared(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	factory, client, err := newLockFactory(ctx, config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()

	ok, err := factory().Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lock:"+runLockKey))
	assert.Equal(t, 10*time.Minute, mr.TTL("lock:"+runLockKey))

	ok, err = factory().Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLiveRunOnceWaitsForRunLock(t *testing.T) {
	factory := lock.LocalFactory()
	held := factory()
	ok, err := held.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	a := &App{Config: &config.Config{}, locks: factory}
	_, err = a.RunOnce(context.Background(), false, "2025-09-01")
	assert.ErrorIs(t, err, queue.ErrRunInProgress)
}

func TestRedisUnreachable(t *testing.T) {
	_, _, err := newLockFactory(context.Background(), config.RedisConfig{URL: "redis://127.0.0.1:1"})
	assert.Error(t, err)
}

func TestEngineConfig(t *testing.T) {
	ec := engineConfig(config.EngineConfig{BatchSize: 25, BatchDelay: 0})
	assert.Equal(t, 25, ec.BatchSize)
	assert.Equal(t, time.Duration(0), ec.BatchDelay)
	assert.Equal(t, 45*time.Second, ec.SendTimeout)
}
