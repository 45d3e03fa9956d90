// Package mcp exposes the task service as Model Context Protocol tools served
// over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/phrazzld/task-manager-api/internal/service"
	"github.com/phrazzld/task-manager-api/internal/store"
	"github.com/phrazzld/task-manager-api/internal/validation"
)

// Server identity reported during initialization.
const (
	ServerName    = "Task Manager"
	ServerVersion = "1.0.0"
)

// Options configures the tool handlers.
type Options struct {
	Logger *slog.Logger
	// Now is the clock used to reject past due dates on create.
	Now func() time.Time
}

type handlers struct {
	tasks  service.TaskService
	logger *slog.Logger
	create validation.CreateOptions
	update validation.UpdateOptions
	query  validation.QueryOptions
}

// NewServer creates an MCP server with one tool per task operation.
func NewServer(tasks service.TaskService, opts Options) *server.MCPServer {
	if tasks == nil {
		panic("task service cannot be nil")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &handlers{
		tasks:  tasks,
		logger: opts.Logger.With(slog.String("component", "mcp")),
		create: validation.DefaultCreateOptions(),
		update: validation.DefaultUpdateOptions(),
		query:  validation.DefaultQueryOptions(),
	}
	if opts.Now != nil {
		h.create.Now = opts.Now
	}

	s := server.NewMCPServer(ServerName, ServerVersion)

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, one page at a time."),
		mcp.WithString("status", mcp.Description("Filter by status (pending|in_progress|completed)")),
		mcp.WithString("sortBy", mcp.Description("created_at, updated_at, due_date, title or status (default created_at)")),
		mcp.WithString("sortOrder", mcp.Description("asc or desc (default desc)")),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
		mcp.WithNumber("limit", mcp.Description("Tasks per page (1-100, default 10)")),
	), h.listTasks)

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id."),
		mcp.WithString("id", mcp.Description("Task id (UUID)"), mcp.Required()),
	), h.getTask)

	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task."),
		mcp.WithString("title", mcp.Description("Title (max 255 chars)"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Description (max 2000 chars)")),
		mcp.WithString("status", mcp.Description("Initial status (default pending)")),
		mcp.WithString("dueDate", mcp.Description("Due date, ISO 8601; must not be in the past unless completed")),
	), h.createTask)

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update some fields of a task. Pass an empty string to clear description or dueDate."),
		mcp.WithString("id", mcp.Description("Task id (UUID)"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithString("dueDate", mcp.Description("New due date, ISO 8601")),
	), h.updateTask)

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task permanently."),
		mcp.WithString("id", mcp.Description("Task id (UUID)"), mcp.Required()),
	), h.deleteTask)

	s.AddTool(mcp.NewTool("task_stats",
		mcp.WithDescription("Count tasks by status and how many are overdue."),
	), h.taskStats)

	return s
}

// Serve runs s on stdin/stdout until stdin closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handlers) listTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	values := url.Values{}
	for key, v := range arguments(request) {
		switch val := v.(type) {
		case string:
			values.Set(key, val)
		case float64:
			values.Set(key, strconv.FormatFloat(val, 'f', -1, 64))
		}
	}

	q, err := validation.Query(values, h.query)
	if err != nil {
		return h.toolError("list_tasks", err), nil
	}

	list, err := h.tasks.ListTasks(ctx, q)
	if err != nil {
		return h.toolError("list_tasks", err), nil
	}
	return jsonResult(map[string]any{
		"tasks":      list.Tasks,
		"pagination": list.Pagination,
		"cached":     list.Cached,
	})
}

func (h *handlers) getTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := validation.TaskID(mcp.ParseString(request, "id", ""))
	if err != nil {
		return h.toolError("get_task", err), nil
	}

	task, err := h.tasks.GetTask(ctx, id)
	if err != nil {
		return h.toolError("get_task", err), nil
	}
	return jsonResult(task)
}

func (h *handlers) createTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	input, err := validation.Create(body, h.create)
	if err != nil {
		return h.toolError("create_task", err), nil
	}

	task, err := h.tasks.CreateTask(ctx, input)
	if err != nil {
		return h.toolError("create_task", err), nil
	}
	return jsonResult(task)
}

func (h *handlers) updateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := validation.TaskID(mcp.ParseString(request, "id", ""))
	if err != nil {
		return h.toolError("update_task", err), nil
	}

	fields := make(map[string]any)
	for key, v := range arguments(request) {
		if key == "id" {
			continue
		}
		// Empty strings clear the nullable fields.
		if s, ok := v.(string); ok && s == "" && (key == "description" || key == "dueDate") {
			fields[key] = nil
			continue
		}
		fields[key] = v
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	patch, err := validation.Update(body, h.update)
	if err != nil {
		return h.toolError("update_task", err), nil
	}

	task, err := h.tasks.UpdateTask(ctx, id, patch)
	if err != nil {
		return h.toolError("update_task", err), nil
	}
	return jsonResult(task)
}

func (h *handlers) deleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := validation.TaskID(mcp.ParseString(request, "id", ""))
	if err != nil {
		return h.toolError("delete_task", err), nil
	}

	if err := h.tasks.DeleteTask(ctx, id); err != nil {
		return h.toolError("delete_task", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %s deleted", id)), nil
}

func (h *handlers) taskStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.tasks.Stats(ctx)
	if err != nil {
		return h.toolError("task_stats", err), nil
	}
	return jsonResult(stats)
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	return args
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError turns err into a tool error result. Store and internal failures
// are logged and reported without their details.
func (h *handlers) toolError(tool string, err error) *mcp.CallToolResult {
	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		msgs := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			msgs = append(msgs, f.Field+": "+f.Message)
		}
		return mcp.NewToolResultError("Validation failed: " + strings.Join(msgs, "; "))
	}

	switch {
	case errors.Is(err, domain.ErrInvalidID):
		return mcp.NewToolResultError(validation.MsgInvalidTaskID)
	case errors.Is(err, domain.ErrMalformedBody):
		return mcp.NewToolResultError("Invalid arguments")
	case service.IsNotFound(err):
		return mcp.NewToolResultError("Task not found")
	}

	h.logger.Error("tool call failed",
		slog.String("tool", tool),
		slog.String("error_kind", store.KindOf(err).String()),
		slog.String("error", err.Error()))
	return mcp.NewToolResultError("Internal error")
}
