package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/marketloop/storefront-backend/api/responses"
	"github.com/marketloop/storefront-backend/pkg/config"
	pkgerrors "github.com/marketloop/storefront-backend/pkg/errors"
	"github.com/marketloop/storefront-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

// HealthLive reports process liveness without touching dependencies.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness, pinging the database and cache.
func HealthReady(cfg *config.Config, database, cache pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				checks["database"] = "down"
				healthy = false
			} else {
				checks["database"] = "up"
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				checks["cache"] = "down"
				healthy = false
			} else {
				checks["cache"] = "up"
			}
		}

		if !healthy {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").
				WithDetails(checks))
			return
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
