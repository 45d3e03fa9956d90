package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/api"
	"github.com/phrazzld/task-manager-api/internal/cache"
	"github.com/phrazzld/task-manager-api/internal/domain"
	"github.com/phrazzld/task-manager-api/internal/mocks"
	"github.com/phrazzld/task-manager-api/internal/service"
	"github.com/phrazzld/task-manager-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelope mirrors the response body of every task endpoint.
type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Error      string              `json:"error"`
	Data       json.RawMessage     `json:"data"`
	Pagination *domain.Pagination  `json:"pagination"`
	Cached     *bool               `json:"cached"`
	Errors     []domain.FieldError `json:"errors"`
	TraceID    string              `json:"traceId"`
}

type testServer struct {
	handler http.Handler
	clock   *testutils.Clock
	store   *mocks.MockTaskStore
}

func newTestServer(t *testing.T, maxBody int64) *testServer {
	t.Helper()
	clk := testutils.NewClock()
	st := mocks.NewMockTaskStore()
	st.Now = clk.Now

	svc, err := service.NewTaskService(st, cache.NewMemory(), nil, service.WithClock(clk.Now))
	require.NoError(t, err)

	h := api.NewRouter(svc, api.RouterConfig{
		AllowedOrigins:     []string{"http://localhost:3000"},
		MaxBodyBytes:       maxBody,
		ExposeErrorDetails: true,
		Now:                clk.Now,
	})
	return &testServer{handler: h, clock: clk, store: st}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) create(t *testing.T, body string) domain.Task {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))
	return task
}

func TestCreateTask(t *testing.T) {
	s := newTestServer(t, 0)

	w, env := s.do(t, http.MethodPost, "/api/tasks", `{"title":"  Write report ","dueDate":"2025-06-10"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, api.MsgTaskCreated, env.Message)

	var task map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "Write report", task["title"])
	assert.Equal(t, "pending", task["status"])
	assert.Nil(t, task["description"])
	assert.Equal(t, "2025-06-10T00:00:00Z", task["dueDate"])
	assert.Equal(t, task["createdAt"], task["updatedAt"])
	_, err := uuid.Parse(task["id"].(string))
	assert.NoError(t, err)
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestServer(t, 0)

	w, env := s.do(t, http.MethodPost, "/api/tasks", `{"dueDate":"2025-05-01T00:00:00Z","status":"later"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, api.MsgValidationFailed, env.Message)
	assert.NotEmpty(t, env.TraceID)
	assert.Equal(t, []domain.FieldError{
		{Field: "title", Message: "Title is required"},
		{Field: "status", Message: "Status must be one of: pending, in_progress, completed"},
	}, env.Errors)

	w, env = s.do(t, http.MethodPost, "/api/tasks", `{"title":"late","dueDate":"2025-05-01T00:00:00Z"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []domain.FieldError{{Field: "dueDate", Message: domain.MsgDueDateInPast}}, env.Errors)
}

func TestCreateTaskMalformedAndOversized(t *testing.T) {
	s := newTestServer(t, 64)

	w, env := s.do(t, http.MethodPost, "/api/tasks", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, api.MsgInvalidJSON, env.Message)
	assert.Equal(t, "Malformed request body", env.Error)

	w, env = s.do(t, http.MethodPost, "/api/tasks", `{"title":"`+strings.Repeat("x", 200)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, api.MsgEntityTooLarge, env.Message)
	assert.Equal(t, "Payload exceeds size limit", env.Error)
}

func TestListTasksCachingThroughHTTP(t *testing.T) {
	s := newTestServer(t, 0)
	s.create(t, `{"title":"one"}`)
	s.create(t, `{"title":"two"}`)

	w1, first := s.do(t, http.MethodGet, "/api/tasks?limit=5", "")
	require.Equal(t, http.StatusOK, w1.Code)
	require.NotNil(t, first.Cached)
	assert.False(t, *first.Cached)

	w2, second := s.do(t, http.MethodGet, "/api/tasks?limit=5", "")
	require.Equal(t, http.StatusOK, w2.Code)
	require.NotNil(t, second.Cached)
	assert.True(t, *second.Cached)
	assert.Equal(t, string(first.Data), string(second.Data))
	assert.Equal(t, first.Pagination, second.Pagination)
	assert.Equal(t, 1, s.store.CallCount("List"))

	s.create(t, `{"title":"three"}`)
	_, third := s.do(t, http.MethodGet, "/api/tasks?limit=5", "")
	assert.False(t, *third.Cached)
	assert.Equal(t, 3, third.Pagination.TotalItems)
}

func TestListTasksPaginationAndClamping(t *testing.T) {
	s := newTestServer(t, 0)
	for i := 0; i < 12; i++ {
		s.create(t, `{"title":"task"}`)
	}

	_, env := s.do(t, http.MethodGet, "/api/tasks?page=0&limit=1000", "")
	require.NotNil(t, env.Pagination)
	assert.Equal(t, domain.Pagination{
		CurrentPage: 1, TotalPages: 1, TotalItems: 12, ItemsPerPage: 100,
	}, *env.Pagination)

	_, env = s.do(t, http.MethodGet, "/api/tasks?page=2&limit=5&sortBy=dueDate&sortOrder=ASC", "")
	assert.Equal(t, domain.Pagination{
		CurrentPage: 2, TotalPages: 3, TotalItems: 12, ItemsPerPage: 5, HasNextPage: true, HasPreviousPage: true,
	}, *env.Pagination)
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	assert.Len(t, tasks, 5)
}

func TestListTasksInvalidQuery(t *testing.T) {
	s := newTestServer(t, 0)

	w, env := s.do(t, http.MethodGet, "/api/tasks?sortBy=priority&page=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, api.MsgInvalidQuery, env.Message)
	assert.Len(t, env.Errors, 2)
}

func TestGetUpdateDeleteTask(t *testing.T) {
	s := newTestServer(t, 0)
	task := s.create(t, `{"title":"lifecycle","description":"d"}`)
	path := "/api/tasks/" + task.ID.String()

	w, env := s.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "lifecycle", got.Title)

	s.clock.Advance(time.Minute)
	w, env = s.do(t, http.MethodPut, path, `{"description":null,"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, api.MsgTaskUpdated, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Nil(t, got.Description)
	assert.Equal(t, domain.TaskStatusInProgress, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	w, env = s.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.MsgTaskDeleted, env.Message)
	assert.Nil(t, env.Data)

	w, env = s.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, api.MsgTaskNotFound, env.Message)

	w, _ = s.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateTaskPastDueDate(t *testing.T) {
	s := newTestServer(t, 0)
	task := s.create(t, `{"title":"report"}`)
	path := "/api/tasks/" + task.ID.String()

	w, env := s.do(t, http.MethodPut, path, `{"dueDate":"2025-05-01T00:00:00Z"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []domain.FieldError{{Field: "dueDate", Message: domain.MsgDueDateInPast}}, env.Errors)

	w, _ = s.do(t, http.MethodPut, path, `{"dueDate":"2025-05-01T00:00:00Z","status":"completed"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateTaskEmptyBody(t *testing.T) {
	s := newTestServer(t, 0)
	task := s.create(t, `{"title":"report"}`)

	w, env := s.do(t, http.MethodPut, "/api/tasks/"+task.ID.String(), `{"unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []domain.FieldError{{Field: "body", Message: "At least one field must be provided for update"}}, env.Errors)
}

func TestInvalidTaskID(t *testing.T) {
	s := newTestServer(t, 0)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w, env := s.do(t, method, "/api/tasks/not-a-uuid", `{"title":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, method)
		assert.Equal(t, "Invalid task ID format", env.Message, method)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t, 0)
	s.create(t, `{"title":"soon","dueDate":"2025-06-01T13:00:00Z"}`)
	s.create(t, `{"title":"later","dueDate":"2025-06-20T00:00:00Z"}`)
	s.create(t, `{"title":"done","status":"completed"}`)
	s.clock.Advance(2 * time.Hour)

	w, env := s.do(t, http.MethodGet, "/api/tasks/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":3,"byStatus":{"pending":2,"in_progress":0,"completed":1},"overdue":1}`, string(env.Data))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","timestamp":"2025-06-01T12:00:00Z","service":"Task Manager API"}`, w.Body.String())
}

func TestUnknownRoutes(t *testing.T) {
	s := newTestServer(t, 0)

	w, env := s.do(t, http.MethodGet, "/api/nothing?x=1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route GET /api/nothing?x=1 not found", env.Message)
	assert.Equal(t, "Not Found", env.Error)

	w, env = s.do(t, http.MethodPatch, "/api/tasks/"+uuid.NewString(), `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.HasPrefix(env.Message, "Route PATCH /api/tasks/"))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServiceErrorsMapThroughHandler(t *testing.T) {
	svc := &mocks.MockTaskService{
		StatsFn: func(context.Context) (*domain.Stats, error) {
			panic("stats exploded")
		},
		DefaultError: service.NewTaskServiceError("list_tasks", "failed", context.DeadlineExceeded),
	}
	h := api.NewRouter(svc, api.RouterConfig{ExposeErrorDetails: false})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadline")
	assert.NotContains(t, w.Body.String(), "stack")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}
