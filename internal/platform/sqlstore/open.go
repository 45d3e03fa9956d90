package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/task-manager-api/internal/config"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const pingTimeout = 5 * time.Second

// Open establishes a connection pool for the configured driver and verifies it
// with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, Dialect, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(dialect.DriverName(), cfg.DSN())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %w", err)
	}

	switch dialect {
	case SQLite:
		// One connection keeps an in-memory database alive and avoids
		// SQLITE_BUSY between concurrent writers.
		db.SetMaxOpenConns(1)
		if err := configureSQLite(ctx, db); err != nil {
			_ = db.Close()
			return nil, "", err
		}
	case Postgres:
		maxOpen := cfg.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 10
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen / 2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", MapError("db.ping", fmt.Errorf("failed to ping database: %w", err))
	}

	logger.Info("database connection established",
		slog.String("driver", string(dialect)),
		slog.Int("max_open_conns", db.Stats().MaxOpenConnections))
	return db, dialect, nil
}

func configureSQLite(ctx context.Context, db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}
