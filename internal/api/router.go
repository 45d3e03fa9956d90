package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	apiMiddleware "github.com/phrazzld/task-manager-api/internal/api/middleware"
	"github.com/phrazzld/task-manager-api/internal/service"
)

// RouterConfig holds what the router needs beyond the task service.
type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	MaxBodyBytes   int64
	// ExposeErrorDetails adds stack traces and error chains to 500 responses.
	ExposeErrorDetails bool
	// RequestLogging enables chi's per-request log line.
	RequestLogging bool
	// Now is the clock used by the health endpoint and create validation.
	Now func() time.Time
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(tasks service.TaskService, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(cfg.Logger))
	if cfg.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(apiMiddleware.Recoverer(cfg.ExposeErrorDetails))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(apiMiddleware.MaxBodyBytes(cfg.MaxBodyBytes))

	r.NotFound(NotFound)
	r.MethodNotAllowed(NotFound)

	taskHandler := NewTaskHandler(tasks, cfg.Logger,
		WithExposeStack(cfg.ExposeErrorDetails),
		WithValidationClock(cfg.Now))

	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", taskHandler.CreateTask)
		r.Get("/", taskHandler.ListTasks)
		r.Get("/stats", taskHandler.GetStats)
		r.Get("/{id}", taskHandler.GetTask)
		r.Put("/{id}", taskHandler.UpdateTask)
		r.Delete("/{id}", taskHandler.DeleteTask)
	})

	r.Get("/health", HealthHandler(cfg.Now))

	return r
}
