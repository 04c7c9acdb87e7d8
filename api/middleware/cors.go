package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/marketloop/storefront-backend/pkg/config"
)

// CORS applies the configured allowed-origin policy. Credentials are always
// allowed because the session rides in a cookie.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
