// Package client is a client-side mirror of the task API. A Store holds the
// last fetched task list together with loading and error state, updates it
// after each successful mutation, and notifies subscribers of every change.
//
// Concurrent calls are not coordinated: whichever response settles last
// determines the state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/domain"
)

// Fallback error messages, used when the server gives nothing more specific.
const (
	ErrMsgFetch  = "Failed to fetch tasks"
	ErrMsgCreate = "Failed to create task"
	ErrMsgUpdate = "Failed to update task"
	ErrMsgDelete = "Failed to delete task"
	ErrMsgGet    = "Failed to get task"
	ErrMsgStats  = "Failed to fetch task statistics"
)

// State is a snapshot of the store.
type State struct {
	Tasks      []domain.Task
	Pagination *domain.Pagination
	Cached     bool
	Loading    bool
	Error      string
}

// Filters selects and orders the tasks fetched by FetchTasks. Zero fields are
// left to the server defaults.
type Filters struct {
	Status    domain.TaskStatus
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (f Filters) values() url.Values {
	v := url.Values{}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.SortBy != "" {
		v.Set("sortBy", f.SortBy)
	}
	if f.SortOrder != "" {
		v.Set("sortOrder", f.SortOrder)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// CreateRequest is the body of a create call.
type CreateRequest struct {
	Title       string            `json:"title"`
	Description *string           `json:"description,omitempty"`
	Status      domain.TaskStatus `json:"status,omitempty"`
	DueDate     *time.Time        `json:"dueDate,omitempty"`
}

// UpdateRequest is the body of a partial update. Nil fields are not sent;
// ClearDescription and ClearDueDate send an explicit null.
type UpdateRequest struct {
	Title            *string
	Description      *string
	Status           *domain.TaskStatus
	DueDate          *time.Time
	ClearDescription bool
	ClearDueDate     bool
}

// MarshalJSON encodes only the supplied fields.
func (r UpdateRequest) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, 4)
	if r.Title != nil {
		body["title"] = *r.Title
	}
	switch {
	case r.ClearDescription:
		body["description"] = nil
	case r.Description != nil:
		body["description"] = *r.Description
	}
	if r.Status != nil {
		body["status"] = *r.Status
	}
	switch {
	case r.ClearDueDate:
		body["dueDate"] = nil
	case r.DueDate != nil:
		body["dueDate"] = r.DueDate.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(body)
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Detail  string
	Fields  []domain.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("api error %d: %s: %s", e.Status, e.Message, e.Fields[0].Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// envelope is the response body shared by every endpoint.
type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Error      string              `json:"error"`
	Data       json.RawMessage     `json:"data"`
	Pagination *domain.Pagination  `json:"pagination"`
	Cached     bool                `json:"cached"`
	Errors     []domain.FieldError `json:"errors"`
}

// Option customises a Store.
type Option func(*Store)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		if c != nil {
			s.http = c
		}
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store mirrors the server's task list.
type Store struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

// NewStore creates a Store talking to the API at baseURL.
func NewStore(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "task_client"))
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn to be called with a snapshot after every state
// change. The returned function unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// FetchTasks replaces the task list with the page selected by f.
func (s *Store) FetchTasks(ctx context.Context, f Filters) error {
	s.begin()

	path := "/api/tasks"
	if q := f.values().Encode(); q != "" {
		path += "?" + q
	}
	env, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		s.fail("fetch tasks", err, ErrMsgFetch)
		return err
	}

	var tasks []domain.Task
	if err := json.Unmarshal(env.Data, &tasks); err != nil {
		s.fail("fetch tasks", err, ErrMsgFetch)
		return fmt.Errorf("decode tasks: %w", err)
	}

	s.update(func(st *State) {
		st.Tasks = tasks
		st.Pagination = env.Pagination
		st.Cached = env.Cached
	})
	return nil
}

// GetTask fetches a single task without touching the list.
func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.begin()

	env, err := s.do(ctx, http.MethodGet, "/api/tasks/"+id.String(), nil)
	if err != nil {
		s.fail("get task", err, ErrMsgGet)
		return nil, err
	}

	task, err := decodeTask(env.Data)
	if err != nil {
		s.fail("get task", err, ErrMsgGet)
		return nil, err
	}
	s.update(nil)
	return task, nil
}

// CreateTask creates a task and appends it to the list.
func (s *Store) CreateTask(ctx context.Context, req CreateRequest) (*domain.Task, error) {
	s.begin()

	env, err := s.do(ctx, http.MethodPost, "/api/tasks", req)
	if err != nil {
		s.fail("create task", err, ErrMsgCreate)
		return nil, err
	}

	task, err := decodeTask(env.Data)
	if err != nil {
		s.fail("create task", err, ErrMsgCreate)
		return nil, err
	}

	s.update(func(st *State) {
		st.Tasks = append(st.Tasks, *task)
	})
	return task, nil
}

// UpdateTask applies a partial update and replaces the task in the list.
func (s *Store) UpdateTask(ctx context.Context, id uuid.UUID, req UpdateRequest) (*domain.Task, error) {
	s.begin()

	env, err := s.do(ctx, http.MethodPut, "/api/tasks/"+id.String(), req)
	if err != nil {
		s.fail("update task", err, ErrMsgUpdate)
		return nil, err
	}

	task, err := decodeTask(env.Data)
	if err != nil {
		s.fail("update task", err, ErrMsgUpdate)
		return nil, err
	}

	s.update(func(st *State) {
		for i := range st.Tasks {
			if st.Tasks[i].ID == id {
				st.Tasks[i] = *task
				break
			}
		}
	})
	return task, nil
}

// DeleteTask deletes a task and removes it from the list.
func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) error {
	s.begin()

	if _, err := s.do(ctx, http.MethodDelete, "/api/tasks/"+id.String(), nil); err != nil {
		s.fail("delete task", err, ErrMsgDelete)
		return err
	}

	s.update(func(st *State) {
		kept := st.Tasks[:0]
		for _, t := range st.Tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		st.Tasks = kept
	})
	return nil
}

// Stats fetches the task summary.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	s.begin()

	env, err := s.do(ctx, http.MethodGet, "/api/tasks/stats", nil)
	if err != nil {
		s.fail("task stats", err, ErrMsgStats)
		return nil, err
	}

	var stats domain.Stats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		s.fail("task stats", err, ErrMsgStats)
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	s.update(nil)
	return &stats, nil
}

func (s *Store) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil {
			if env.Message != "" {
				apiErr.Message = env.Message
			}
			apiErr.Detail = env.Error
			apiErr.Fields = env.Errors
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &env, nil
}

func decodeTask(raw json.RawMessage) (*domain.Task, error) {
	var task domain.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}

// begin marks a call in flight and clears the previous error.
func (s *Store) begin() {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	subs, snap := s.listeners(), s.snapshot()
	s.mu.Unlock()
	notify(subs, snap)
}

// update applies fn to the state, ends loading and notifies subscribers.
func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	if fn != nil {
		fn(&s.state)
	}
	s.state.Loading = false
	subs, snap := s.listeners(), s.snapshot()
	s.mu.Unlock()
	notify(subs, snap)
}

// fail records the user-facing message for err: the first field error, then
// the server message, then fallback.
func (s *Store) fail(op string, err error, fallback string) {
	s.logger.Debug("task api call failed", slog.String("operation", op), slog.String("error", err.Error()))

	msg := fallback
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case len(apiErr.Fields) > 0 && apiErr.Fields[0].Message != "":
			msg = apiErr.Fields[0].Message
		case apiErr.Message != "" && apiErr.Message != http.StatusText(apiErr.Status):
			msg = apiErr.Message
		}
	}
	s.update(func(st *State) { st.Error = msg })
}

func (s *Store) snapshot() State {
	snap := s.state
	snap.Tasks = append([]domain.Task(nil), s.state.Tasks...)
	if s.state.Pagination != nil {
		p := *s.state.Pagination
		snap.Pagination = &p
	}
	return snap
}

func (s *Store) listeners() []func(State) {
	out := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(State), snap State) {
	for _, fn := range subs {
		fn(snap)
	}
}
