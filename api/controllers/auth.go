package controllers

import (
	"net/http"

	"github.com/marketloop/storefront-backend/api/responses"
	"github.com/marketloop/storefront-backend/api/validators"
	authsvc "github.com/marketloop/storefront-backend/internal/auth"
	pkgauth "github.com/marketloop/storefront-backend/pkg/auth"
	"github.com/marketloop/storefront-backend/pkg/config"
	pkgerrors "github.com/marketloop/storefront-backend/pkg/errors"
	"github.com/marketloop/storefront-backend/pkg/logger"
)

// AuthRegister creates an account and starts a session in one round trip.
func AuthRegister(svc authsvc.Service, jwtCfg config.JWTConfig, appCfg config.AppConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.RegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgauth.SetTokenCookie(w, jwtCfg, appCfg, resp.Token)
		responses.WriteSuccessStatus(w, http.StatusCreated, resp.User)
	}
}

// AuthLogin verifies credentials and refreshes the session cookie.
func AuthLogin(svc authsvc.Service, jwtCfg config.JWTConfig, appCfg config.AppConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgauth.SetTokenCookie(w, jwtCfg, appCfg, resp.Token)
		responses.WriteSuccess(w, resp.User)
	}
}

// AuthLogout expires the session cookie. Tokens are stateless, so a copy of
// the cookie captured before logout stays valid until its expiry.
func AuthLogout(jwtCfg config.JWTConfig, appCfg config.AppConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkgauth.ClearTokenCookie(w, jwtCfg, appCfg)
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthListUsers returns every account. Admin only, enforced by the router.
func AuthListUsers(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		list, err := svc.ListUsers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
