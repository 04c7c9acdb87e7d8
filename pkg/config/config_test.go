package config

import (
	"strings"
	"testing"
	"time"
)

func TestEnsureDSNBuildsURLFromParts(t *testing.T) {
	t.Parallel()

	db := DBConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "store",
		Password: "p@ss word",
		Name:     "storefront",
		SSLMode:  "require",
	}

	if err := db.ensureDSN(); err != nil {
		t.Fatalf("ensureDSN: %v", err)
	}
	if !strings.HasPrefix(db.DSN, "postgres://store:") {
		t.Fatalf("unexpected dsn %q", db.DSN)
	}
	if !strings.Contains(db.DSN, "sslmode=require") {
		t.Fatalf("expected sslmode in dsn %q", db.DSN)
	}
}

func TestEnsureDSNMissingParts(t *testing.T) {
	t.Parallel()

	db := DBConfig{Host: "db.internal"}
	err := db.ensureDSN()
	if err == nil {
		t.Fatal("expected error for missing db config")
	}
	if !strings.Contains(err.Error(), EnvDBUser) || !strings.Contains(err.Error(), EnvDBName) {
		t.Fatalf("expected missing vars in error, got %v", err)
	}
}

func TestEnsureDSNPreservesExplicitDSN(t *testing.T) {
	t.Parallel()

	db := DBConfig{DSN: "postgres://a:b@c:5432/d"}
	if err := db.ensureDSN(); err != nil {
		t.Fatalf("ensureDSN: %v", err)
	}
	if db.DSN != "postgres://a:b@c:5432/d" {
		t.Fatalf("dsn should be untouched, got %q", db.DSN)
	}
}

func TestJWTTokenTTL(t *testing.T) {
	t.Parallel()

	cfg := JWTConfig{ExpirationMinutes: 1440}
	if cfg.TokenTTL() != 24*time.Hour {
		t.Fatalf("expected 24h, got %s", cfg.TokenTTL())
	}
	if (JWTConfig{}).TokenTTL() != 0 {
		t.Fatal("expected zero TTL for unset expiration")
	}
}

func TestAppEnvHelpers(t *testing.T) {
	t.Parallel()

	if !(AppConfig{Env: "PROD"}).IsProd() {
		t.Fatal("expected case-insensitive prod match")
	}
	if !(AppConfig{Env: "dev"}).IsDev() {
		t.Fatal("expected dev match")
	}
}
