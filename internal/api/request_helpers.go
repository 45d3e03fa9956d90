package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/platform/logger"
	"github.com/phrazzld/task-manager-api/internal/validation"
)

// getPathUUID extracts and validates a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	return validation.TaskID(chi.URLParam(r, paramName))
}

// handlePathUUID extracts a UUID from the path parameters. It writes an error
// response and returns false when the parameter is not a valid UUID.
func (h *TaskHandler) handlePathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	id, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, h.exposeStack)
		return uuid.Nil, false
	}
	return id, true
}
