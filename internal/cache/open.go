package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/task-manager-api/internal/config"
)

// Open builds the cache selected by cfg.Driver and returns it with a close
// function. An unreachable Redis server is logged, not fatal: the returned
// cache keeps serving misses until the server comes back.
func Open(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (Cache, func() error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case config.CacheRedis:
		client := NewRedisClient(cfg)
		c := NewRedis(client, logger)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx); err != nil {
			logger.Warn("redis unavailable, continuing without cache",
				slog.String("addr", cfg.Addr()),
				slog.String("error", err.Error()))
		} else {
			logger.Info("redis cache connected", slog.String("addr", cfg.Addr()))
		}
		return c, client.Close
	case config.CacheMemory:
		logger.Info("using in-memory cache")
		return NewMemory(), func() error { return nil }
	default:
		logger.Info("caching disabled")
		return Noop{}, func() error { return nil }
	}
}
