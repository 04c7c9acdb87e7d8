package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/marketloop/storefront-backend/pkg/auth"
	"github.com/marketloop/storefront-backend/pkg/config"
	"github.com/marketloop/storefront-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "storefront",
		ExpirationMinutes: 60,
		CookieName:        "token",
	}
}

func mintCookie(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.UserRole, now time.Time) *http.Cookie {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, now, pkgauth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return &http.Cookie{Name: cfg.CookieName, Value: token}
}

func identityProbe(got *Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFromContext(r.Context()); ok {
			*got = identity
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingCookie(t *testing.T) {
	t.Parallel()
	var got Identity
	handler := Auth(testJWTConfig(), nil)(identityProbe(&got))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	t.Parallel()
	cfg := testJWTConfig()
	var got Identity
	handler := Auth(cfg, nil)(identityProbe(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "not-a-jwt"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	t.Parallel()
	cfg := testJWTConfig()
	var got Identity
	handler := Auth(cfg, nil)(identityProbe(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(mintCookie(t, cfg, uuid.New(), enums.UserRoleCustomer, time.Now().Add(-2*time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthSeedsIdentity(t *testing.T) {
	t.Parallel()
	cfg := testJWTConfig()
	userID := uuid.New()
	var got Identity
	handler := Auth(cfg, nil)(identityProbe(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(mintCookie(t, cfg, userID, enums.UserRoleAdmin, time.Now()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.UserID != userID || got.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestRequireRoleForbidsMismatch(t *testing.T) {
	t.Parallel()
	called := false
	handler := RequireRole(enums.UserRoleAdmin, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: uuid.New(), Role: enums.UserRoleCustomer}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if called {
		t.Fatal("handler must not run for the wrong role")
	}
}

func TestRequireRoleUnauthenticated(t *testing.T) {
	t.Parallel()
	handler := RequireRole(enums.UserRoleAdmin, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
