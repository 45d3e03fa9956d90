package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/task-manager-api/internal/cache"
	"github.com/phrazzld/task-manager-api/internal/config"
	"github.com/phrazzld/task-manager-api/internal/mcp"
	"github.com/phrazzld/task-manager-api/internal/platform/sqlstore"
	"github.com/phrazzld/task-manager-api/internal/service"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	now    func() time.Time

	cache      cache.Cache
	closeCache func() error

	taskService service.TaskService
}

// newApplication wires the store, cache and task service. The database must
// already be connected and migrated.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	dialect sqlstore.Dialect,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		now:    time.Now,
	}

	app.cache, app.closeCache = cache.Open(ctx, cfg.Cache, logger)

	taskStore := sqlstore.NewTaskStore(db, dialect, logger)

	var err error
	app.taskService, err = service.NewTaskService(taskStore, app.cache, logger,
		service.WithListTTL(cfg.Cache.TTL()))
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run serves the HTTP API until ctx is canceled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// RunMCP serves the MCP tools over stdio until stdin closes.
func (app *application) RunMCP() error {
	defer app.cleanup()

	s := mcp.NewServer(app.taskService, mcp.Options{Logger: app.logger, Now: app.now})
	app.logger.Info("serving MCP tools on stdio")
	if err := mcp.Serve(s); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.closeCache != nil {
		if err := app.closeCache(); err != nil {
			app.logger.Error("error closing cache", slog.String("error", err.Error()))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
