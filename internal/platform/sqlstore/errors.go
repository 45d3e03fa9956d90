package sqlstore

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/phrazzld/task-manager-api/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"

	// connectionExceptionClass prefixes every SQLSTATE in class 08.
	connectionExceptionClass = "08"
	adminShutdownCode        = "57P01"
	tooManyConnectionsCode   = "53300"
)

// MapError classifies a database error as a *store.Error. It returns nil for a
// nil error and passes an existing *store.Error through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return err
	}

	return store.E(op, classify(err), err)
}

func classify(err error) store.Kind {
	if errors.Is(err, sql.ErrNoRows) {
		return store.KindNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(pgErr)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return classifySQLite(sqliteErr.Code(), sqliteErr.Error())
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return store.KindConnection
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return store.KindConnection
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return store.KindConnection
	}

	return store.KindInternal
}

func classifyPostgres(pgErr *pgconn.PgError) store.Kind {
	switch {
	case pgErr.Code == uniqueViolationCode:
		return store.KindConflict
	case pgErr.Code == foreignKeyViolationCode:
		return store.KindForeignKey
	case pgErr.Code == checkViolationCode, pgErr.Code == notNullViolationCode:
		return store.KindValidation
	case strings.HasPrefix(pgErr.Code, connectionExceptionClass),
		pgErr.Code == adminShutdownCode,
		pgErr.Code == tooManyConnectionsCode:
		return store.KindConnection
	default:
		return store.KindInternal
	}
}

func classifySQLite(code int, msg string) store.Kind {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return store.KindConflict
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return store.KindForeignKey
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return store.KindValidation
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB:
		return store.KindConnection
	case sqlite3.SQLITE_CONSTRAINT:
		// Primary code only; the message names the constraint type.
		switch {
		case strings.Contains(msg, "UNIQUE"), strings.Contains(msg, "PRIMARY KEY"):
			return store.KindConflict
		case strings.Contains(msg, "FOREIGN KEY"):
			return store.KindForeignKey
		case strings.Contains(msg, "CHECK"), strings.Contains(msg, "NOT NULL"):
			return store.KindValidation
		}
		return store.KindInternal
	default:
		return store.KindInternal
	}
}

// constraintError wraps a constraint violation so the store error carries a
// field list the API can render.
func constraintError(op string, err error) error {
	mapped := MapError(op, err)
	var storeErr *store.Error
	if !errors.As(mapped, &storeErr) || storeErr.Kind != store.KindValidation || len(storeErr.Fields) > 0 {
		return mapped
	}
	field, message := constraintField(err)
	storeErr.Fields = []domain.FieldError{{Field: field, Message: message}}
	return storeErr
}

func constraintField(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.ColumnName != "" {
			return jsonField(pgErr.ColumnName), "Invalid value"
		}
		if pgErr.ConstraintName != "" {
			return jsonField(strings.TrimSuffix(strings.TrimPrefix(pgErr.ConstraintName, "tasks_"), "_check")), "Invalid value"
		}
	}
	msg := err.Error()
	for _, col := range []string{"status", "title", "due_date", "description"} {
		if strings.Contains(msg, col) {
			return jsonField(col), "Invalid value"
		}
	}
	return "task", "Invalid value"
}

// jsonField converts a column name into the field name used in API payloads.
func jsonField(column string) string {
	switch column {
	case "due_date":
		return "dueDate"
	case "created_at":
		return "createdAt"
	case "updated_at":
		return "updatedAt"
	default:
		return column
	}
}
