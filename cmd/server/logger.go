package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/task-manager-api/internal/config"
	"github.com/phrazzld/task-manager-api/internal/platform/logger"
)

// setupAppLogger configures and initializes the application logger based on config settings.
// In MCP mode stdout carries the protocol, so logs go to stderr instead.
func setupAppLogger(cfg *config.Config, mcpMode bool) (*slog.Logger, error) {
	if mcpMode {
		l := logger.New(os.Stderr, cfg.Server.LogLevel).With(
			slog.String("service", "task-manager-api"),
			slog.String("environment", cfg.Server.Environment),
			slog.String("mode", "mcp"),
		)
		slog.SetDefault(l)
		return l, nil
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("cache_driver", cfg.Cache.Driver))
	return l, nil
}
