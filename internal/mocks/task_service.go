package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/phrazzld/task-manager-api/internal/service"
)

// MockTaskService implements service.TaskService for testing
type MockTaskService struct {
	// Custom behavior functions
	CreateTaskFn func(ctx context.Context, input domain.TaskInput) (*domain.Task, error)
	ListTasksFn  func(ctx context.Context, q domain.TaskQuery) (*service.TaskList, error)
	GetTaskFn    func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateTaskFn func(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTaskFn func(ctx context.Context, id uuid.UUID) error
	StatsFn      func(ctx context.Context) (*domain.Stats, error)

	// Default return values
	Task         *domain.Task
	List         *service.TaskList
	Stat         *domain.Stats
	DefaultError error
}

// Ensure MockTaskService implements service.TaskService interface
var _ service.TaskService = (*MockTaskService)(nil)

// CreateTask implements the TaskService.CreateTask method
func (m *MockTaskService) CreateTask(ctx context.Context, input domain.TaskInput) (*domain.Task, error) {
	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, input)
	}
	return m.Task, m.DefaultError
}

// ListTasks implements the TaskService.ListTasks method
func (m *MockTaskService) ListTasks(ctx context.Context, q domain.TaskQuery) (*service.TaskList, error) {
	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx, q)
	}
	return m.List, m.DefaultError
}

// GetTask implements the TaskService.GetTask method
func (m *MockTaskService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, id)
	}
	return m.Task, m.DefaultError
}

// UpdateTask implements the TaskService.UpdateTask method
func (m *MockTaskService) UpdateTask(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	if m.UpdateTaskFn != nil {
		return m.UpdateTaskFn(ctx, id, patch)
	}
	return m.Task, m.DefaultError
}

// DeleteTask implements the TaskService.DeleteTask method
func (m *MockTaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, id)
	}
	return m.DefaultError
}

// Stats implements the TaskService.Stats method
func (m *MockTaskService) Stats(ctx context.Context) (*domain.Stats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	return m.Stat, m.DefaultError
}
