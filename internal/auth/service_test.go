package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marketloop/storefront-backend/internal/users"
	pkgauth "github.com/marketloop/storefront-backend/pkg/auth"
	"github.com/marketloop/storefront-backend/pkg/config"
	"github.com/marketloop/storefront-backend/pkg/db"
	"github.com/marketloop/storefront-backend/pkg/db/models"
	"github.com/marketloop/storefront-backend/pkg/enums"
	pkgerrors "github.com/marketloop/storefront-backend/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "storefront",
		ExpirationMinutes: 60,
		CookieName:        "token",
	}
}

func newTestService(t *testing.T) (Service, *users.Repository) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", gofakeit.LetterN(8))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := users.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		DB:        db.NewWithConn(conn),
		UserRepo:  repo,
		JWTConfig: testJWTConfig(),
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestRegisterMintsTokenAndStoresCustomer(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	email := gofakeit.Email()
	resp, err := svc.Register(ctx, RegisterRequest{
		Name:     gofakeit.Name(),
		Email:    "  " + email + "  ",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", resp.User.Role)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Fatal("token subject does not match created user")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := RegisterRequest{Name: "a", Email: gofakeit.Email(), Password: "password-123"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, req)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestLoginRoundtrip(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	email := gofakeit.Email()
	if _, err := svc.Register(ctx, RegisterRequest{Name: "a", Email: email, Password: "password-123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: email, Password: "password-123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token on login")
	}
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	email := gofakeit.Email()
	if _, err := svc.Register(ctx, RegisterRequest{Name: "a", Email: email, Password: "password-123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassErr := svc.Login(ctx, LoginRequest{Email: email, Password: "nope"})
	_, unknownErr := svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "nope"})

	for _, err := range []error{wrongPassErr, unknownErr} {
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected UNAUTHORIZED, got %v", err)
		}
		if appErr.Message() != invalidCredentialsMessage {
			t.Fatalf("expected uniform message, got %q", appErr.Message())
		}
	}
}

func TestListUsers(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Name: "a", Email: gofakeit.Email(), Password: "password-123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := repo.Create(ctx, users.CreateUserDTO{
		Email: gofakeit.Email(), PasswordHash: "h", Role: enums.UserRoleAdmin,
	}); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	list, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %d", len(list))
	}
}

func TestTokensExpireAfterTTL(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	past := time.Now().Add(-25 * time.Hour)
	svcImpl := svc.(*service)
	svcImpl.now = func() time.Time { return past }

	resp, err := svcImpl.Register(context.Background(), RegisterRequest{
		Name: "a", Email: gofakeit.Email(), Password: "password-123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.Token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
