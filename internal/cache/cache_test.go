package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	mu    sync.Mutex
	calls int
}

func (c *counter) compute(v int) ComputeFunc[int] {
	return func(context.Context) (int, error) {
		c.mu.Lock()
		c.calls++
		c.mu.Unlock()
		return v, nil
	}
}

func TestMemoryHitWithinTTL(t *testing.T) {
	m := NewMemory[int](30 * time.Second)
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }
	c := &counter{}
	ctx := context.Background()

	v, err := m.GetOrCompute(ctx, "u1", c.compute(1))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	now = now.Add(29 * time.Second)
	v, err = m.GetOrCompute(ctx, "u1", c.compute(2))
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, c.calls)
}

func TestMemoryRecomputesAfterExpiry(t *testing.T) {
	m := NewMemory[int](30 * time.Second)
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }
	c := &counter{}
	ctx := context.Background()

	_, _ = m.GetOrCompute(ctx, "u1", c.compute(1))
	now = now.Add(30 * time.Second)
	v, err := m.GetOrCompute(ctx, "u1", c.compute(2))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, c.calls)
}

func TestMemoryDoesNotCacheErrors(t *testing.T) {
	m := NewMemory[int](time.Minute)
	boom := errors.New("boom")
	ctx := context.Background()

	_, err := m.GetOrCompute(ctx, "u1", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	c := &counter{}
	v, err := m.GetOrCompute(ctx, "u1", c.compute(7))
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, c.calls)
}

func TestMemoryInvalidate(t *testing.T) {
	m := NewMemory[int](time.Minute)
	c := &counter{}
	ctx := context.Background()

	_, _ = m.GetOrCompute(ctx, "a", c.compute(1))
	_, _ = m.GetOrCompute(ctx, "b", c.compute(1))
	require.NoError(t, m.Invalidate(ctx, "a"))

	_, _ = m.GetOrCompute(ctx, "a", c.compute(1))
	_, _ = m.GetOrCompute(ctx, "b", c.compute(1))
	assert.Equal(t, 3, c.calls)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory[int](time.Minute)
	c := &counter{}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.GetOrCompute(ctx, "shared", c.compute(42))
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, c.calls, 1)
}

func TestRedisIntegration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	type payload struct {
		Count int `json:"count"`
	}
	ctx := context.Background()
	key := "it-" + time.Now().Format("150405.000000000")
	c := NewRedis[payload](client, "payeasy:test:", time.Minute, nil)
	defer c.Invalidate(ctx, key)

	calls := 0
	compute := func(context.Context) (payload, error) {
		calls++
		return payload{Count: 3}, nil
	}

	v, err := c.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Count)

	v, err = c.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(ctx, key))
	_, err = c.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisUnavailableFallsBackToCompute(t *testing.T) {
	logger, hook := test.NewNullLogger()
	c := NewRedis[int](unreachableRedis(t), "payeasy:test:", time.Minute, logger)
	calls := &counter{}

	for i := 0; i < 2; i++ {
		v, err := c.GetOrCompute(context.Background(), "u1", calls.compute(9))
		require.NoError(t, err)
		assert.Equal(t, 9, v)
	}
	assert.Equal(t, 2, calls.calls)
	assert.NotEmpty(t, hook.AllEntries())
}

func TestRedisUnavailableStillReturnsComputeError(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := NewRedis[int](unreachableRedis(t), "payeasy:test:", time.Minute, logger)
	boom := errors.New("boom")

	_, err := c.GetOrCompute(context.Background(), "u1", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}
