package main

import (
	"net/http"

	"github.com/phrazzld/task-manager-api/internal/api"
	"github.com/phrazzld/task-manager-api/internal/config"
)

// setupRouter creates the HTTP handler serving the task API.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(app.taskService, api.RouterConfig{
		Logger:             app.logger,
		AllowedOrigins:     app.config.Server.Origins(),
		MaxBodyBytes:       app.config.Server.MaxBodyBytes,
		ExposeErrorDetails: !app.config.Server.IsProduction(),
		RequestLogging:     app.config.Server.Environment == config.EnvDevelopment,
		Now:                app.now,
	})
}
