package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "start miniredis")
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, nil), mr
}

func TestRedisGetSet(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "tasks:all:created_at:desc:1:10")
	assert.False(t, ok, "empty cache misses")

	require.True(t, c.Set(ctx, "tasks:all:created_at:desc:1:10", []byte(`{"tasks":[]}`), 5*time.Minute))

	got, ok := c.Get(ctx, "tasks:all:created_at:desc:1:10")
	require.True(t, ok)
	assert.Equal(t, `{"tasks":[]}`, string(got))

	ttl := mr.TTL("tasks:all:created_at:desc:1:10")
	assert.Equal(t, 5*time.Minute, ttl)

	mr.FastForward(5 * time.Minute)
	_, ok = c.Get(ctx, "tasks:all:created_at:desc:1:10")
	assert.False(t, ok, "entry expires after its TTL")
}

func TestRedisDeleteByPattern(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	// More keys than one SCAN batch.
	for i := 0; i < 250; i++ {
		require.True(t, c.Set(ctx, fmt.Sprintf("tasks:all:created_at:desc:%d:10", i), []byte("x"), time.Minute))
	}
	require.NoError(t, mr.Set("other:key", "keep"))

	assert.True(t, c.DeleteByPattern(ctx, "tasks:*"))

	assert.Len(t, mr.Keys(), 1)
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisDelete(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("tasks:one", "1"))
	assert.True(t, c.Delete(ctx, "tasks:one"))
	assert.False(t, mr.Exists("tasks:one"))
	assert.True(t, c.Delete(ctx, "tasks:missing"), "deleting an absent key is not a failure")
}

func TestRedisDegradesWhenServerIsDown(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()
	require.True(t, c.Set(ctx, "tasks:k", []byte("v"), time.Minute))

	mr.Close()

	_, ok := c.Get(ctx, "tasks:k")
	assert.False(t, ok, "backend errors read as a miss")
	assert.False(t, c.Set(ctx, "tasks:k", []byte("v"), time.Minute))
	assert.False(t, c.Delete(ctx, "tasks:k"))
	assert.False(t, c.DeleteByPattern(ctx, "tasks:*"))
	assert.Error(t, c.Ping(ctx))
}

func TestNewRedisPanicsOnNilClient(t *testing.T) {
	assert.Panics(t, func() { NewRedis(nil, nil) })
}
