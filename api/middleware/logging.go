package middleware

import (
	"net/http"
	"time"

	"github.com/marketloop/storefront-backend/pkg/logger"
)

// Logging emits one structured line per completed request with the final
// status and wall-clock duration.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			started := time.Now()
			next.ServeHTTP(writer, r.WithContext(ctx))

			ctx = logg.WithFields(ctx, map[string]any{
				"status":      writer.status,
				"duration_ms": time.Since(started).Milliseconds(),
			})
			logg.Info(ctx, "request.complete")
		})
	}
}

// statusRecorder remembers the first status written so the access log can
// report it after the handler returns.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.written {
		r.status = status
		r.written = true
	}
	r.ResponseWriter.WriteHeader(status)
}
