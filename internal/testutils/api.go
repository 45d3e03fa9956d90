package testutils

import (
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/task-manager-api/internal/api"
	"github.com/phrazzld/task-manager-api/internal/cache"
	"github.com/phrazzld/task-manager-api/internal/mocks"
	"github.com/phrazzld/task-manager-api/internal/service"
	"github.com/stretchr/testify/require"
)

// TaskAPI is a running task API backed by the in-memory mock store and an
// in-memory cache.
type TaskAPI struct {
	Server  *httptest.Server
	URL     string
	Store   *mocks.MockTaskStore
	Cache   *cache.Memory
	Service service.TaskService
	Clock   *Clock
}

// NewTaskAPI starts a task API server that is closed when the test ends.
func NewTaskAPI(t *testing.T) *TaskAPI {
	t.Helper()

	clk := NewClock()
	st := mocks.NewMockTaskStore()
	st.Now = clk.Now
	c := cache.NewMemoryWithClock(clk.Now)

	svc, err := service.NewTaskService(st, c, nil, service.WithClock(clk.Now))
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(svc, api.RouterConfig{Now: clk.Now}))
	t.Cleanup(srv.Close)

	return &TaskAPI{
		Server:  srv,
		URL:     srv.URL,
		Store:   st,
		Cache:   c,
		Service: svc,
		Clock:   clk,
	}
}
