package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/task-manager-api/internal/api/shared"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/phrazzld/task-manager-api/internal/redact"
	"github.com/phrazzld/task-manager-api/internal/store"
	"github.com/phrazzld/task-manager-api/internal/validation"
)

// Client-facing messages.
const (
	MsgValidationFailed   = "Validation failed"
	MsgInvalidQuery       = "Invalid query parameters"
	MsgInvalidJSON        = "Invalid JSON format"
	MsgEntityTooLarge     = "Request entity too large"
	MsgTaskNotFound       = "Task not found"
	MsgAlreadyExists      = "Resource already exists"
	MsgInvalidReference   = "Invalid reference"
	MsgDatabaseConnection = "Database connection failed"
	MsgInternal           = "Internal server error"
)

// queryError marks a validation failure of the URL query so it is reported
// with its own message.
type queryError struct{ err error }

func (e *queryError) Error() string { return e.err.Error() }
func (e *queryError) Unwrap() error { return e.err }

// MapError maps an error to its HTTP status and client-safe error envelope.
// Every error kind has an explicit branch; anything unrecognised is a 500.
func MapError(err error) (int, shared.ErrorResponse) {
	switch {
	case errors.Is(err, shared.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, shared.ErrorResponse{
			Message: MsgEntityTooLarge,
			Error:   "Payload exceeds size limit",
		}

	case errors.Is(err, domain.ErrMalformedBody):
		return http.StatusBadRequest, shared.ErrorResponse{
			Message: MsgInvalidJSON,
			Error:   "Malformed request body",
		}

	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, shared.ErrorResponse{
			Message: validation.MsgInvalidTaskID,
			Errors:  []domain.FieldError{{Field: "id", Message: validation.MsgInvalidTaskID}},
		}
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		message := MsgValidationFailed
		var qerr *queryError
		if errors.As(err, &qerr) {
			message = MsgInvalidQuery
		}
		return http.StatusBadRequest, shared.ErrorResponse{Message: message, Errors: verr.Fields}
	}

	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		return http.StatusInternalServerError, shared.ErrorResponse{Message: MsgInternal}
	}

	switch storeErr.Kind {
	case store.KindValidation:
		return http.StatusBadRequest, shared.ErrorResponse{
			Message: MsgValidationFailed,
			Errors:  storeErr.Fields,
		}
	case store.KindNotFound:
		return http.StatusNotFound, shared.ErrorResponse{Message: MsgTaskNotFound}
	case store.KindConflict:
		return http.StatusConflict, shared.ErrorResponse{
			Message: MsgAlreadyExists,
			Error:   "Duplicate entry",
		}
	case store.KindForeignKey:
		return http.StatusBadRequest, shared.ErrorResponse{
			Message: MsgInvalidReference,
			Error:   "Foreign key constraint failed",
		}
	case store.KindConnection:
		return http.StatusInternalServerError, shared.ErrorResponse{
			Message: MsgDatabaseConnection,
			Error:   "Service temporarily unavailable",
		}
	case store.KindInternal:
		return http.StatusInternalServerError, shared.ErrorResponse{Message: MsgInternal}
	default:
		return http.StatusInternalServerError, shared.ErrorResponse{Message: MsgInternal}
	}
}

// HandleAPIError writes the error envelope for err and logs it. Outside
// production, 500 responses carry the redacted error chain in stack.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, exposeStack bool) {
	status, resp := MapError(err)
	if exposeStack && status >= http.StatusInternalServerError {
		resp.Stack = redact.Error(err)
	}

	var opts []shared.ResponseOption
	if status == http.StatusConflict {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, resp, err, opts...)
}
