package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marketloop/storefront-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags each request with a correlation id. An inbound header is
// honored only when it parses as a UUID, so upstream proxies cannot inject
// arbitrary strings into the logs.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := resolveRequestID(r)
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveRequestID(r *http.Request) string {
	if inbound := r.Header.Get(requestIDHeader); inbound != "" {
		if id, err := uuid.Parse(inbound); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}
