package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents where a task is in its lifecycle.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Field length limits, counted in characters.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 2000
)

// Messages shared by the validation layer and the store hooks.
const (
	MsgDueDateInPast = "Due date cannot be in the past"
)

// TaskStatuses returns every valid status in display order.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}
}

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// Task is a unit of work tracked by the API.
//
// Description and DueDate are optional and serialise as null when absent.
// CreatedAt and UpdatedAt are owned by the store.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskInput holds the client-supplied fields of a new task.
type TaskInput struct {
	Title       string
	Description *string
	Status      TaskStatus
	DueDate     *time.Time
}

// NewTask builds a task ready to be inserted: a fresh id, pending status when
// none is given, and CreatedAt equal to UpdatedAt.
func NewTask(title string, description *string, status TaskStatus, dueDate *time.Time, now time.Time) *Task {
	if status == "" {
		status = TaskStatusPending
	}
	now = now.UTC()
	t := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if dueDate != nil {
		d := dueDate.UTC()
		t.DueDate = &d
	}
	return t
}

// IsOverdue reports whether the task has a due date before now and is not
// completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusCompleted
}

// Apply copies the supplied fields of p onto t and refreshes UpdatedAt.
func (t *Task) Apply(p TaskPatch, now time.Time) {
	if v, ok := p.Title.Get(); ok {
		t.Title = v
	}
	if p.Description.Set {
		if v, ok := p.Description.Get(); ok {
			t.Description = &v
		} else {
			t.Description = nil
		}
	}
	if v, ok := p.Status.Get(); ok {
		t.Status = v
	}
	if p.DueDate.Set {
		if v, ok := p.DueDate.Get(); ok {
			d := v.UTC()
			t.DueDate = &d
		} else {
			t.DueDate = nil
		}
	}
	t.UpdatedAt = now.UTC()
}

// CheckCreateDueDate rejects a new task whose due date is already past,
// unless the task is created completed.
func CheckCreateDueDate(t *Task, now time.Time) error {
	if t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusCompleted {
		return NewValidationError("dueDate", MsgDueDateInPast)
	}
	return nil
}

// CheckUpdateDueDate rejects a patch that moves the due date into the past.
// The status the task will have after the patch is applied decides the
// exception, so setting a past date together with status=completed passes.
// Clearing the date or leaving it unchanged always passes.
func CheckUpdateDueDate(current *Task, p TaskPatch, now time.Time) error {
	due, ok := p.DueDate.Get()
	if !ok {
		return nil
	}
	// Stored timestamps keep microseconds.
	if current.DueDate != nil && current.DueDate.Equal(due.Truncate(time.Microsecond)) {
		return nil
	}
	status := current.Status
	if s, ok := p.Status.Get(); ok {
		status = s
	}
	if due.Before(now) && status != TaskStatusCompleted {
		return NewValidationError("dueDate", MsgDueDateInPast)
	}
	return nil
}
