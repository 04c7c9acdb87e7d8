package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketloop/storefront-backend/pkg/config"
)

func TestSetTokenCookieDevAttributes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SetTokenCookie(rec, testJWTConfig(), config.AppConfig{Env: config.AppEnvDev}, "jwt-value")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "token" || c.Value != "jwt-value" {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if !c.HttpOnly {
		t.Fatal("cookie must be http-only")
	}
	if c.Path != "/" {
		t.Fatalf("expected site-root path, got %q", c.Path)
	}
	if c.Secure {
		t.Fatal("dev cookie must not be transport-restricted")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected Lax in dev, got %v", c.SameSite)
	}
	if c.MaxAge != 24*60*60 {
		t.Fatalf("expected 24h max-age, got %d", c.MaxAge)
	}
}

func TestSetTokenCookieProdAttributes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SetTokenCookie(rec, testJWTConfig(), config.AppConfig{Env: config.AppEnvProd}, "jwt-value")

	c := rec.Result().Cookies()[0]
	if !c.Secure {
		t.Fatal("prod cookie must be secure")
	}
	if c.SameSite != http.SameSiteNoneMode {
		t.Fatalf("expected SameSite=None in prod, got %v", c.SameSite)
	}
}

func TestClearTokenCookieMatchesScope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ClearTokenCookie(rec, testJWTConfig(), config.AppConfig{Env: config.AppEnvProd})

	c := rec.Result().Cookies()[0]
	if c.Value != "" {
		t.Fatalf("expected empty value, got %q", c.Value)
	}
	if c.MaxAge >= 0 {
		t.Fatalf("expected negative max-age, got %d", c.MaxAge)
	}
	if c.Path != "/" || !c.HttpOnly || !c.Secure {
		t.Fatalf("clear cookie must match issue scope, got %+v", c)
	}
}
