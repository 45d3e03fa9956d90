package api

import (
	"net/http"
	"time"

	"github.com/phrazzld/task-manager-api/internal/api/shared"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Task Manager API"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

// HealthHandler reports that the process is serving requests.
func HealthHandler(now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
			Status:    "OK",
			Timestamp: now().UTC(),
			Service:   ServiceName,
		})
	}
}

// NotFound answers requests that match no route, including known paths with
// an unsupported method.
func NotFound(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusNotFound, shared.ErrorResponse{
		Message: "Route " + r.Method + " " + r.URL.RequestURI() + " not found",
		Error:   "Not Found",
	})
}
