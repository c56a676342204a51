package environment

import (
	"context"
	"log/slog"
	"net/http"
)

// LogKey is the slog attribute key used by LoggerExtractor.
const LogKey = "env"

// Middleware stamps env on every request context so handlers and the error
// logger can branch on it without reading configuration.
func Middleware(env Environment) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), env)))
		})
	}
}

// LoggerExtractor reports the context environment for logger.WithContextExtractors.
// Records without one get no attribute.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		env := FromContext(ctx)
		if env == "" {
			return slog.Attr{}, false
		}
		return slog.String(LogKey, string(env)), true
	}
}
