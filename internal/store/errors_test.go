package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "ErrTaskNotFound",
			err:      ErrTaskNotFound,
			expected: true,
		},
		{
			name:     "not found store error",
			err:      E("task.get", KindNotFound, ErrTaskNotFound),
			expected: true,
		},
		{
			name:     "wrapped not found store error",
			err:      fmt.Errorf("loading task: %w", E("task.get", KindNotFound, nil)),
			expected: true,
		},
		{
			name:     "conflict store error",
			err:      E("task.create", KindConflict, errors.New("duplicate key")),
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsNotFoundError(tc.err))
		})
	}
}

func TestErrorIsMatchesKindSentinel(t *testing.T) {
	tests := []struct {
		kind     Kind
		sentinel error
	}{
		{KindNotFound, ErrNotFound},
		{KindConflict, ErrDuplicate},
		{KindForeignKey, ErrInvalidReference},
		{KindConnection, ErrConnection},
		{KindValidation, domain.ErrValidation},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			err := E("op", tc.kind, errors.New("driver said no"))
			assert.ErrorIs(t, err, tc.sentinel)
			assert.Equal(t, tc.kind, KindOf(err))
		})
	}

	assert.NotErrorIs(t, E("op", KindInternal, nil), ErrNotFound)
}

func TestErrorUnwrapAndMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := E("task.list", KindConnection, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "task.list failed (connection): connection reset", err.Error())
	assert.Equal(t, "task.delete failed (not_found)", E("task.delete", KindNotFound, nil).Error())
}

func TestValidationErrorCarriesFields(t *testing.T) {
	verr := domain.NewValidationError("dueDate", domain.MsgDueDateInPast)
	err := E("task.update", KindValidation, verr)

	assert.Equal(t, verr.Fields, err.Fields)

	var target *domain.ValidationError
	assert.True(t, errors.As(err, &target))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrap: %w", E("op", KindConflict, nil))))
	assert.Equal(t, "kind(42)", Kind(42).String())
}
