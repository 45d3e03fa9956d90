package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/phrazzld/task-manager-api/internal/platform/logger"
	"github.com/phrazzld/task-manager-api/internal/store"
)

const taskColumns = "id, title, description, status, due_date, created_at, updated_at"

// TaskStore implements store.TaskStore on a SQL database.
type TaskStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
	now     func() time.Time
}

// Option customises a TaskStore.
type Option func(*TaskStore)

// WithClock overrides the time source used for timestamps and due-date checks.
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTaskStore creates a TaskStore. The db must be open and migrated.
// If logger is nil, a default logger will be used.
func NewTaskStore(db *sql.DB, dialect Dialect, logger *slog.Logger, opts ...Option) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &TaskStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "task_store")),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// timestamp normalises t to the precision both dialects round-trip exactly.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	const op = "task.create"
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := timestamp(s.now())
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	if task.DueDate != nil {
		d := timestamp(*task.DueDate)
		task.DueDate = &d
	}
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := domain.CheckCreateDueDate(task, now); err != nil {
		log.Debug("task rejected by due date rule",
			slog.String("task_id", task.ID.String()))
		return store.E(op, store.KindValidation, err)
	}

	query := s.dialect.Rebind(`
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		nullString(task.Description),
		string(task.Status),
		nullTime(task.DueDate),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return constraintError(op, err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	const op = "task.get"
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.getByID(ctx, s.db, id, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.E(op, store.KindNotFound, store.ErrTaskNotFound)
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(op, err)
	}
	return task, nil
}

func (s *TaskStore) getByID(ctx context.Context, db store.DBTX, id uuid.UUID, lock bool) (*domain.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = ?"
	if lock {
		query += s.dialect.lockSuffix()
	}
	return scanTask(db.QueryRowContext(ctx, s.dialect.Rebind(query), id))
}

// List implements store.TaskStore.List
func (s *TaskStore) List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, int, error) {
	const op = "task.list"
	log := logger.FromContextOrDefault(ctx, s.logger)

	var where string
	var args []any
	if q.Status != nil {
		where = " WHERE status = ?"
		args = append(args, string(*q.Status))
	}

	var total int
	countQuery := s.dialect.Rebind("SELECT COUNT(*) FROM tasks" + where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks", slog.String("error", err.Error()))
		return nil, 0, MapError(op, err)
	}

	query := s.dialect.Rebind(
		"SELECT " + taskColumns + " FROM tasks" + where + orderBy(q) + " LIMIT ? OFFSET ?",
	)
	rows, err := s.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, 0, MapError(op, err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0, q.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, 0, MapError(op, err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, 0, MapError(op, err)
	}

	log.Debug("tasks listed",
		slog.Int("count", len(tasks)),
		slog.Int("total", total),
		slog.Int("page", q.Page))
	return tasks, total, nil
}

// orderBy builds the ORDER BY clause from whitelisted identifiers only. The id
// tiebreak keeps pages stable when the sort column has duplicates.
func orderBy(q domain.TaskQuery) string {
	col := q.SortBy
	if !col.IsValid() {
		col = domain.SortByCreatedAt
	}
	dir := "DESC"
	if q.SortOrder == domain.SortAsc {
		dir = "ASC"
	}
	clause := fmt.Sprintf(" ORDER BY %s %s", col, dir)
	if col == domain.SortByDueDate {
		clause += " NULLS LAST"
	}
	return clause + ", id " + dir
}

// Update implements store.TaskStore.Update
func (s *TaskStore) Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	const op = "task.update"
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		current, err := s.getByID(ctx, tx, id, true)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.E(op, store.KindNotFound, store.ErrTaskNotFound)
			}
			return MapError(op, err)
		}

		now := timestamp(s.now())
		if err := domain.CheckUpdateDueDate(current, patch, now); err != nil {
			return store.E(op, store.KindValidation, err)
		}
		current.Apply(patch, now)
		if current.DueDate != nil {
			d := timestamp(*current.DueDate)
			current.DueDate = &d
		}

		query := s.dialect.Rebind(`
			UPDATE tasks
			SET title = ?, description = ?, status = ?, due_date = ?, updated_at = ?
			WHERE id = ?
		`)
		result, err := tx.ExecContext(ctx, query,
			current.Title,
			nullString(current.Description),
			string(current.Status),
			nullTime(current.DueDate),
			current.UpdatedAt,
			current.ID,
		)
		if err != nil {
			return constraintError(op, err)
		}
		if err := checkRowsAffected(op, result); err != nil {
			return err
		}

		updated = current
		return nil
	})
	if err != nil {
		switch store.KindOf(err) {
		case store.KindNotFound, store.KindValidation:
			log.Debug("task update rejected",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		default:
			log.Error("failed to update task",
				slog.String("task_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, MapError(op, err)
	}

	log.Info("task updated",
		slog.String("task_id", id.String()),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "task.delete"
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, s.dialect.Rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(op, err)
	}
	if err := checkRowsAffected(op, result); err != nil {
		log.Debug("task not found for delete", slog.String("task_id", id.String()))
		return err
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// CountByStatus implements store.TaskStore.CountByStatus
func (s *TaskStore) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error) {
	const op = "task.count_by_status"

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return nil, MapError(op, err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, MapError(op, err)
		}
		counts[domain.TaskStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(op, err)
	}
	return counts, nil
}

// CountOverdue implements store.TaskStore.CountOverdue
func (s *TaskStore) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	const op = "task.count_overdue"

	query := s.dialect.Rebind(`
		SELECT COUNT(*) FROM tasks
		WHERE due_date IS NOT NULL AND due_date < ? AND status <> ?
	`)
	var n int
	if err := s.db.QueryRowContext(ctx, query, timestamp(now), string(domain.TaskStatusCompleted)).Scan(&n); err != nil {
		return 0, MapError(op, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		status      string
		dueDate     sql.NullTime
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&status,
		&dueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		d := dueDate.Time.UTC()
		task.DueDate = &d
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

// checkRowsAffected reports a not-found store error when an UPDATE or DELETE
// touched no rows.
func checkRowsAffected(op string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return MapError(op, fmt.Errorf("failed to get rows affected: %w", err))
	}
	if n == 0 {
		return store.E(op, store.KindNotFound, store.ErrTaskNotFound)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
