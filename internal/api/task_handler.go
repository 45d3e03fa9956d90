package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/task-manager-api/internal/api/shared"
	"github.com/phrazzld/task-manager-api/internal/platform/logger"
	"github.com/phrazzld/task-manager-api/internal/service"
	"github.com/phrazzld/task-manager-api/internal/validation"
)

// Success messages.
const (
	MsgTaskCreated = "Task created successfully"
	MsgTaskUpdated = "Task updated successfully"
	MsgTaskDeleted = "Task deleted successfully"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks       service.TaskService
	logger      *slog.Logger
	exposeStack bool
	createOpts  validation.CreateOptions
	updateOpts  validation.UpdateOptions
	queryOpts   validation.QueryOptions
}

// TaskHandlerOption customises a TaskHandler.
type TaskHandlerOption func(*TaskHandler)

// WithExposeStack includes error details in 500 responses. Never enable it in
// production.
func WithExposeStack(expose bool) TaskHandlerOption {
	return func(h *TaskHandler) { h.exposeStack = expose }
}

// WithValidationClock sets the clock used for the past-due check on create.
func WithValidationClock(now func() time.Time) TaskHandlerOption {
	return func(h *TaskHandler) {
		if now != nil {
			h.createOpts.Now = now
		}
	}
}

// NewTaskHandler creates a new TaskHandler.
// If logger is nil, a default logger will be used.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger, opts ...TaskHandlerOption) *TaskHandler {
	if tasks == nil {
		panic("tasks cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &TaskHandler{
		tasks:      tasks,
		logger:     logger.With(slog.String("component", "task_handler")),
		createOpts: validation.DefaultCreateOptions(),
		updateOpts: validation.DefaultUpdateOptions(),
		queryOpts:  validation.DefaultQueryOptions(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CreateTask handles POST /api/tasks requests
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	body, err := shared.ReadBody(r)
	if err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	input, err := validation.Create(body, h.createOpts)
	if err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), input)
	if err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	log.Info("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, shared.Response{
		Success: true,
		Message: MsgTaskCreated,
		Data:    task,
	})
}

// ListTasks handles GET /api/tasks requests
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q, err := validation.Query(r.URL.Query(), h.queryOpts)
	if err != nil {
		HandleAPIError(w, r, &queryError{err: err}, h.exposeStack)
		return
	}

	list, err := h.tasks.ListTasks(r.Context(), q)
	if err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	cached := list.Cached
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{
		Success:    true,
		Data:       list.Tasks,
		Pagination: &list.Pagination,
		Cached:     &cached,
	})
}

// GetStats handles GET /api/tasks/stats requests
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tasks.Stats(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{Success: true, Data: stats})
}

// GetTask handles GET /api/tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{Success: true, Data: task})
}

// UpdateTask handles PUT /api/tasks/{id} requests
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	body, err := shared.ReadBody(r)
	if err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	patch, err := validation.Update(body, h.updateOpts)
	if err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), id, patch)
	if err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	log.Info("task updated", slog.String("task_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{
		Success: true,
		Message: MsgTaskUpdated,
		Data:    task,
	})
}

// DeleteTask handles DELETE /api/tasks/{id} requests
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, h.exposeStack)
		return
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{Success: true, Message: MsgTaskDeleted})
}
