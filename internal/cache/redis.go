package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/task-manager-api/internal/config"
	"github.com/phrazzld/task-manager-api/internal/platform/logger"
	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for SCAN and the size of each DEL batch.
const scanBatch = 100

// Redis is a Cache backed by a Redis server.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure Redis implements Cache interface
var _ Cache = (*Redis)(nil)

// NewRedisClient builds a client for the configured server. It does not dial.
func NewRedisClient(cfg config.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// NewRedis wraps client. If logger is nil, a default logger will be used.
func NewRedis(client *redis.Client, logger *slog.Logger) *Redis {
	if client == nil {
		panic("cache.NewRedis: client is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client: client,
		logger: logger.With(slog.String("component", "redis_cache")),
	}
}

// Ping checks that the server is reachable.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get implements Cache.Get
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "cache get failed", key, err)
		}
		return nil, false
	}
	return data, true
}

// Set implements Cache.Set
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.warn(ctx, "cache set failed", key, err)
		return false
	}
	return true
}

// Delete implements Cache.Delete
func (c *Redis) Delete(ctx context.Context, key string) bool {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.warn(ctx, "cache delete failed", key, err)
		return false
	}
	return true
}

// DeleteByPattern implements Cache.DeleteByPattern using SCAN so large
// keyspaces are never blocked by KEYS.
func (c *Redis) DeleteByPattern(ctx context.Context, pattern string) bool {
	iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	deleted := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		deleted += int(n)
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				c.warn(ctx, "cache pattern delete failed", pattern, err)
				return false
			}
		}
	}
	if err := iter.Err(); err != nil {
		c.warn(ctx, "cache scan failed", pattern, err)
		return false
	}
	if err := flush(); err != nil {
		c.warn(ctx, "cache pattern delete failed", pattern, err)
		return false
	}

	logger.FromContextOrDefault(ctx, c.logger).Debug("cache keys invalidated",
		slog.String("pattern", pattern),
		slog.Int("deleted", deleted))
	return true
}

func (c *Redis) warn(ctx context.Context, msg, key string, err error) {
	logger.FromContextOrDefault(ctx, c.logger).Warn(msg,
		slog.String("key", key),
		slog.String("error", err.Error()))
}
