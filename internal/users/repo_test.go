package users

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marketloop/storefront-backend/pkg/db/models"
	"github.com/marketloop/storefront-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:users_%s?mode=memory&cache=shared", gofakeit.LetterN(8))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestCreateAndFind(t *testing.T) {
	t.Parallel()
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	email := gofakeit.Email()
	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: "hash",
		Name:         gofakeit.Name(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Role != enums.UserRoleCustomer {
		t.Fatalf("expected default customer role, got %s", created.Role)
	}

	byEmail, err := repo.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatal("find by email returned a different user")
	}

	byID, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != email {
		t.Fatalf("expected email %s, got %s", email, byID.Email)
	}
}

func TestFindByEmailNotFound(t *testing.T) {
	t.Parallel()
	repo := NewRepository(newTestDB(t))

	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	t.Parallel()
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	email := gofakeit.Email()
	if _, err := repo.Create(ctx, CreateUserDTO{Email: email, PasswordHash: "h"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := repo.Create(ctx, CreateUserDTO{Email: email, PasswordHash: "h"}); err == nil {
		t.Fatal("expected unique violation on duplicate email")
	}
}

func TestListOrdersByCreation(t *testing.T) {
	t.Parallel()
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, CreateUserDTO{Email: gofakeit.Email(), PasswordHash: "h"}); err != nil {
			t.Fatalf("create user %d: %v", i, err)
		}
	}

	rows, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 users, got %d", len(rows))
	}
}
