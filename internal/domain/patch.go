package domain

import "time"

// Optional is a tri-state field value used by partial updates: absent, explicitly
// null, or set to a value.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an Optional that was explicitly set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Get returns the held value and true when the field is set to a non-null value.
func (o Optional[T]) Get() (T, bool) {
	if !o.Set || o.Null {
		var zero T
		return zero, false
	}
	return o.Value, true
}

// TaskPatch carries the fields supplied to an update. Unset fields are left
// untouched; Description and DueDate may be cleared with an explicit null.
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[TaskStatus]
	DueDate     Optional[time.Time]
}

// IsEmpty reports whether no field was supplied.
func (p TaskPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set && !p.DueDate.Set
}
