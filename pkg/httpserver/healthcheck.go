package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tutorhub/tutorhub/pkg/logger"
)

// Check is a named readiness dependency, e.g. the Postgres pool or Redis.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// checkTimeout bounds each readiness check.
const checkTimeout = 3 * time.Second

// LivenessHandler answers 200 ALIVE while the process serves requests.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// ReadinessHandler answers 200 READY when every check passes and 500 NOT_READY
// otherwise. Failures are logged with the check name.
func ReadinessHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			err := c.Fn(ctx)
			cancel()
			if err != nil {
				log.ErrorContext(r.Context(), "readiness check failed",
					logger.Component(c.Name),
					logger.Error(err),
				)
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		_, _ = w.Write([]byte("READY"))
	}
}
