package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
// Every method returns a *Error on failure.
type TaskStore interface {
	// Create inserts a new task. It assigns the id when missing, sets
	// CreatedAt and UpdatedAt to the same instant, defaults the status to
	// pending and rejects a past due date unless the task is completed.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns a KindNotFound error if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns one page of tasks matching the query's status filter,
	// ordered as requested, along with the total number of matching tasks.
	List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, int, error)

	// Update applies patch to the task inside a transaction and returns the
	// stored result. Returns a KindNotFound error if the task does not exist
	// and a KindValidation error if the due-date rule rejects the patch.
	Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)

	// Delete hard-deletes a task.
	// Returns a KindNotFound error if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStatus returns the number of tasks per status. Statuses with
	// no tasks may be absent from the map.
	CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error)

	// CountOverdue returns the number of tasks due before now that are not
	// completed.
	CountOverdue(ctx context.Context, now time.Time) (int, error)
}
