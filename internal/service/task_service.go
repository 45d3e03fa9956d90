package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/cache"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/phrazzld/task-manager-api/internal/platform/logger"
	"github.com/phrazzld/task-manager-api/internal/store"
)

// Listing cache layout.
const (
	// ListCachePrefix starts every listing cache key.
	ListCachePrefix = "tasks"
	// ListCachePattern matches every listing cache key.
	ListCachePattern = ListCachePrefix + ":*"
	// DefaultListTTL is how long a listing snapshot stays cached.
	DefaultListTTL = 300 * time.Second
)

// codec encodes listing snapshots. It is compatible with encoding/json so a
// snapshot decodes to exactly the values that were stored.
var codec = sonic.ConfigStd

// TaskService provides task-related operations
type TaskService interface {
	// CreateTask stores a new task and returns it with its id and timestamps
	CreateTask(ctx context.Context, input domain.TaskInput) (*domain.Task, error)

	// ListTasks returns one page of tasks, from the cache when possible
	ListTasks(ctx context.Context, q domain.TaskQuery) (*TaskList, error)

	// GetTask retrieves a task by its ID
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateTask applies a partial update and returns the stored result
	UpdateTask(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)

	// DeleteTask removes a task permanently
	DeleteTask(ctx context.Context, id uuid.UUID) error

	// Stats summarises all tasks
	Stats(ctx context.Context) (*domain.Stats, error)
}

// TaskList is one page of a listing. Tasks and Pagination form the cached
// snapshot; Cached reports whether it was served from the cache.
type TaskList struct {
	Tasks      []*domain.Task    `json:"tasks"`
	Pagination domain.Pagination `json:"pagination"`
	Cached     bool              `json:"-"`
}

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "list_tasks")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError. It returns nil for a nil
// err so call sites can wrap unconditionally.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// Option customises the task service.
type Option func(*taskServiceImpl)

// WithClock overrides the time source used for overdue counts.
func WithClock(now func() time.Time) Option {
	return func(s *taskServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithListTTL overrides how long listing snapshots stay cached.
func WithListTTL(ttl time.Duration) Option {
	return func(s *taskServiceImpl) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	tasks  store.TaskStore
	cache  cache.Cache
	logger *slog.Logger
	now    func() time.Time
	ttl    time.Duration
}

// NewTaskService creates a new TaskService.
// It returns an error if the store is nil. A nil cache disables caching and a
// nil logger falls back to the default logger.
func NewTaskService(
	tasks store.TaskStore,
	c cache.Cache,
	logger *slog.Logger,
	opts ...Option,
) (TaskService, error) {
	if tasks == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "task store cannot be nil",
		}
	}
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		tasks:  tasks,
		cache:  c,
		logger: logger.With(slog.String("component", "task_service")),
		now:    time.Now,
		ttl:    DefaultListTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListCacheKey builds the cache key of a listing:
// tasks:{status|all}:{sortBy}:{sortOrder}:{page}:{limit}.
func ListCacheKey(q domain.TaskQuery) string {
	status := "all"
	if q.Status != nil {
		status = string(*q.Status)
	}
	return strings.Join([]string{
		ListCachePrefix,
		status,
		string(q.SortBy),
		string(q.SortOrder),
		strconv.Itoa(q.Page),
		strconv.Itoa(q.Limit),
	}, ":")
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(ctx context.Context, input domain.TaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task := &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		DueDate:     input.DueDate,
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Debug("task creation failed", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "failed to create task", err)
	}

	s.invalidateListings(ctx)
	return task, nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(ctx context.Context, q domain.TaskQuery) (*TaskList, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := ListCacheKey(q)

	if raw, ok := s.cache.Get(ctx, key); ok {
		var list TaskList
		err := codec.Unmarshal(raw, &list)
		if err == nil {
			log.Debug("task listing served from cache", slog.String("cache_key", key))
			list.Cached = true
			return &list, nil
		}
		log.Warn("discarding undecodable cache entry",
			slog.String("cache_key", key),
			slog.String("error", err.Error()))
		s.cache.Delete(ctx, key)
	}

	tasks, total, err := s.tasks.List(ctx, q)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	list := &TaskList{
		Tasks:      tasks,
		Pagination: domain.NewPagination(q.Page, q.Limit, total),
	}

	// A mutation that invalidates between the store read and this write leaves
	// the snapshot stale until the TTL expires.
	if raw, err := codec.Marshal(list); err != nil {
		log.Warn("failed to encode task listing for cache",
			slog.String("cache_key", key),
			slog.String("error", err.Error()))
	} else if !s.cache.Set(ctx, key, raw, s.ttl) {
		log.Debug("task listing not cached", slog.String("cache_key", key))
	}

	return list, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "failed to get task", err)
	}
	return task, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	id uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	if patch.IsEmpty() {
		return nil, NewTaskServiceError("update_task", "no fields to update",
			domain.NewValidationError("body", "At least one field must be provided for update"))
	}

	task, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		return nil, NewTaskServiceError("update_task", "failed to update task", err)
	}

	s.invalidateListings(ctx)
	return task, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	s.invalidateListings(ctx)
	return nil
}

// Stats implements TaskService.Stats
func (s *taskServiceImpl) Stats(ctx context.Context) (*domain.Stats, error) {
	counts, err := s.tasks.CountByStatus(ctx)
	if err != nil {
		return nil, NewTaskServiceError("task_stats", "failed to count tasks by status", err)
	}

	overdue, err := s.tasks.CountOverdue(ctx, s.now())
	if err != nil {
		return nil, NewTaskServiceError("task_stats", "failed to count overdue tasks", err)
	}

	stats := domain.NewStats(counts, overdue)
	return &stats, nil
}

// invalidateListings drops every cached listing. A failure is logged; the
// entries then expire with their TTL.
func (s *taskServiceImpl) invalidateListings(ctx context.Context) {
	if !s.cache.DeleteByPattern(ctx, ListCachePattern) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to invalidate task listings",
			slog.String("pattern", ListCachePattern))
	}
}

// IsNotFound reports whether err means the requested task does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
