// Package health provides liveness and readiness HTTP handlers.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jobhunterui/cvgen/core/logger"
	"github.com/jobhunterui/cvgen/core/response"
)

// Liveness indicates if the service process is running.
// Always returns "ALIVE" with 200 OK. No dependency checks.
func Liveness(w http.ResponseWriter, r *http.Request) {
	response.String(w, http.StatusOK, "ALIVE")
}

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if all checks pass, 503 Service Unavailable if any fail.
func Readiness(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "Readiness check failed", logger.Error(err))
				response.Error(w, response.ErrServiceUnavailable)
				return
			}
		}

		response.String(w, http.StatusOK, "READY")
	}
}
