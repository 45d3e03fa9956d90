package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/task-manager-api/internal/domain"
)

// Common store errors used across all store implementations. A *Error of the
// matching Kind satisfies errors.Is against them.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would violate a unique constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidReference is returned when a foreign key points at nothing.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrConnection is returned when the database cannot be reached.
	ErrConnection = errors.New("database connection failed")

	// ErrTaskNotFound indicates that the requested task does not exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)
)

// Kind classifies a store failure so callers can map it without inspecting
// driver errors.
type Kind int

// Store error kinds
const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForeignKey
	KindConnection
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForeignKey:
		return "foreign_key"
	case KindConnection:
		return "connection"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error type returned by store implementations.
type Error struct {
	Kind   Kind                // Classification of the failure
	Op     string              // The operation that failed (e.g., "task.create")
	Fields []domain.FieldError // Field errors for KindValidation
	Err    error               // Original error
}

// E creates a store error of the given kind.
func E(op string, kind Kind, err error) *Error {
	e := &Error{Kind: kind, Op: op, Err: err}
	var verr *domain.ValidationError
	if kind == KindValidation && errors.As(err, &verr) {
		e.Fields = verr.Fields
	}
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed (%s)", e.Op, e.Kind)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error corresponding to the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound || target == ErrTaskNotFound
	case KindConflict:
		return target == ErrDuplicate
	case KindForeignKey:
		return target == ErrInvalidReference
	case KindConnection:
		return target == ErrConnection
	case KindValidation:
		return target == domain.ErrValidation
	case KindInternal:
		return false
	default:
		return false
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
