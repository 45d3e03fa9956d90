// Package sqlstore implements store.TaskStore on database/sql. It supports
// PostgreSQL through the pgx stdlib driver and SQLite through modernc.org/sqlite,
// hiding placeholder and locking differences behind a Dialect. Schema changes
// ship as embedded goose migrations, one directory per dialect.
package sqlstore
