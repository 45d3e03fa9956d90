package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/task-manager-api/internal/api/shared"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/phrazzld/task-manager-api/internal/service"
	"github.com/phrazzld/task-manager-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	fields := []domain.FieldError{{Field: "title", Message: "Title is required"}}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantDetail  string
		wantFields  []domain.FieldError
	}{
		{
			name:        "body too large",
			err:         fmt.Errorf("%w: limit", shared.ErrBodyTooLarge),
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantMessage: MsgEntityTooLarge,
			wantDetail:  "Payload exceeds size limit",
		},
		{
			name:        "malformed json",
			err:         fmt.Errorf("%w: unexpected EOF", domain.ErrMalformedBody),
			wantStatus:  http.StatusBadRequest,
			wantMessage: MsgInvalidJSON,
			wantDetail:  "Malformed request body",
		},
		{
			name:        "invalid id",
			err:         fmt.Errorf("%w: %q", domain.ErrInvalidID, "abc"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid task ID format",
			wantFields:  []domain.FieldError{{Field: "id", Message: "Invalid task ID format"}},
		},
		{
			name:        "validation error",
			err:         &domain.ValidationError{Fields: fields},
			wantStatus:  http.StatusBadRequest,
			wantMessage: MsgValidationFailed,
			wantFields:  fields,
		},
		{
			name:        "query validation error",
			err:         &queryError{err: &domain.ValidationError{Fields: fields}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: MsgInvalidQuery,
			wantFields:  fields,
		},
		{
			name:        "store validation from hook",
			err:         service.NewTaskServiceError("create_task", "failed", store.E("task.create", store.KindValidation, domain.NewValidationError("dueDate", domain.MsgDueDateInPast))),
			wantStatus:  http.StatusBadRequest,
			wantMessage: MsgValidationFailed,
			wantFields:  []domain.FieldError{{Field: "dueDate", Message: domain.MsgDueDateInPast}},
		},
		{
			name:        "store validation from constraint",
			err:         &store.Error{Kind: store.KindValidation, Op: "task.create", Fields: []domain.FieldError{{Field: "status", Message: "Invalid value"}}, Err: errors.New("check")},
			wantStatus:  http.StatusBadRequest,
			wantMessage: MsgValidationFailed,
			wantFields:  []domain.FieldError{{Field: "status", Message: "Invalid value"}},
		},
		{
			name:        "not found",
			err:         service.NewTaskServiceError("get_task", "failed", store.E("task.get", store.KindNotFound, store.ErrTaskNotFound)),
			wantStatus:  http.StatusNotFound,
			wantMessage: MsgTaskNotFound,
		},
		{
			name:        "conflict",
			err:         store.E("task.create", store.KindConflict, store.ErrDuplicate),
			wantStatus:  http.StatusConflict,
			wantMessage: MsgAlreadyExists,
			wantDetail:  "Duplicate entry",
		},
		{
			name:        "foreign key",
			err:         store.E("task.create", store.KindForeignKey, store.ErrInvalidReference),
			wantStatus:  http.StatusBadRequest,
			wantMessage: MsgInvalidReference,
			wantDetail:  "Foreign key constraint failed",
		},
		{
			name:        "connection",
			err:         store.E("task.list", store.KindConnection, store.ErrConnection),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgDatabaseConnection,
			wantDetail:  "Service temporarily unavailable",
		},
		{
			name:        "internal store error",
			err:         store.E("task.list", store.KindInternal, errors.New("syntax")),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgInternal,
		},
		{
			name:        "unknown error",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MsgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, tt.wantDetail, resp.Error)
			assert.Equal(t, tt.wantFields, resp.Errors)
		})
	}
}

func TestHandleAPIErrorStackExposure(t *testing.T) {
	err := errors.New("lookup failed for postgres://app:s3cret@db:5432/tasks")

	w := httptest.NewRecorder()
	HandleAPIError(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil), err, true)
	assert.Contains(t, w.Body.String(), `"stack"`)
	assert.NotContains(t, w.Body.String(), "s3cret")

	w = httptest.NewRecorder()
	HandleAPIError(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil), err, false)
	assert.NotContains(t, w.Body.String(), `"stack"`)

	w = httptest.NewRecorder()
	HandleAPIError(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil), &domain.ValidationError{}, true)
	assert.NotContains(t, w.Body.String(), `"stack"`, "client errors never carry a stack")
}
