package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/phrazzld/task-manager-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. Without Fn overrides it
// behaves as a small in-memory store: filtering by status, paging in insertion
// order and applying the same due-date rules as the SQL store.
type MockTaskStore struct {
	// Function fields for customizable behavior
	CreateFn        func(ctx context.Context, task *domain.Task) error
	GetByIDFn       func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListFn          func(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, int, error)
	UpdateFn        func(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	DeleteFn        func(ctx context.Context, id uuid.UUID) error
	CountByStatusFn func(ctx context.Context) (map[domain.TaskStatus]int, error)
	CountOverdueFn  func(ctx context.Context, now time.Time) (int, error)

	// Now is the clock used by the default implementation
	Now func() time.Time

	// Calls counts invocations per method name
	Calls map[string]int

	mu    sync.Mutex
	order []uuid.UUID
	tasks map[uuid.UUID]*domain.Task
}

// Ensure MockTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a new mock store with initialized defaults
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		Now:   time.Now,
		Calls: make(map[string]int),
		tasks: make(map[uuid.UUID]*domain.Task),
	}
}

func (m *MockTaskStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[name]++
}

func (m *MockTaskStore) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now().UTC()
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	m.record("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	now := m.now()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	task.CreatedAt = now
	task.UpdatedAt = now
	if err := domain.CheckCreateDueDate(task, now); err != nil {
		return store.E("task.create", store.KindValidation, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasks == nil {
		m.tasks = make(map[uuid.UUID]*domain.Task)
	}
	if _, exists := m.tasks[task.ID]; exists {
		return store.E("task.create", store.KindConflict, store.ErrDuplicate)
	}
	stored := *task
	m.tasks[task.ID] = &stored
	m.order = append(m.order, task.ID)
	return nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	m.record("GetByID")
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, store.E("task.get", store.KindNotFound, store.ErrTaskNotFound)
	}
	cp := *task
	return &cp, nil
}

// List implements the TaskStore interface
func (m *MockTaskStore) List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, int, error) {
	m.record("List")
	if m.ListFn != nil {
		return m.ListFn(ctx, q)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*domain.Task
	for _, id := range m.order {
		task := m.tasks[id]
		if q.Status != nil && task.Status != *q.Status {
			continue
		}
		cp := *task
		matched = append(matched, &cp)
	}

	total := len(matched)
	start := min(q.Offset(), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return matched[start:end], total, nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	m.record("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, patch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, store.E("task.update", store.KindNotFound, store.ErrTaskNotFound)
	}
	now := m.now()
	if err := domain.CheckUpdateDueDate(task, patch, now); err != nil {
		return nil, store.E("task.update", store.KindValidation, err)
	}
	task.Apply(patch, now)
	cp := *task
	return &cp, nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.record("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return store.E("task.delete", store.KindNotFound, store.ErrTaskNotFound)
	}
	delete(m.tasks, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// CountByStatus implements the TaskStore interface
func (m *MockTaskStore) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error) {
	m.record("CountByStatus")
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[domain.TaskStatus]int)
	for _, task := range m.tasks {
		counts[task.Status]++
	}
	return counts, nil
}

// CountOverdue implements the TaskStore interface
func (m *MockTaskStore) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	m.record("CountOverdue")
	if m.CountOverdueFn != nil {
		return m.CountOverdueFn(ctx, now)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, task := range m.tasks {
		if task.IsOverdue(now) {
			n++
		}
	}
	return n, nil
}

// CallCount returns how often the named method was called.
func (m *MockTaskStore) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}
