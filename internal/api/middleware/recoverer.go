package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/phrazzld/task-manager-api/internal/api/shared"
	"github.com/phrazzld/task-manager-api/internal/platform/logger"
)

// Recoverer turns a panic in a handler into a 500 error envelope. The stack
// trace is logged, and included in the response only when exposeStack is set.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recoverer(exposeStack bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := string(debug.Stack())
				logger.FromContextOrDefault(r.Context(), nil).Error("panic recovered",
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", stack),
					slog.String("path", r.URL.Path))

				resp := shared.ErrorResponse{Message: "Internal server error"}
				if exposeStack {
					resp.Stack = fmt.Sprintf("panic: %v\n%s", rec, stack)
				}
				shared.RespondWithError(w, r, http.StatusInternalServerError, resp)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
