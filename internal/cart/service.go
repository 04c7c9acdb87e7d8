package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketloop/storefront-backend/pkg/db"
	"github.com/marketloop/storefront-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/storefront-backend/pkg/errors"
)

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations, all scoped to the acting user's own cart.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
}

type service struct {
	repo     *Repository
	products productFinder
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product finder required")
	}
	return &service{repo: repo, products: products}, nil
}

// GetOrCreate returns the user's cart, lazily creating an empty one. Two
// concurrent first-calls race on the insert; the loser hits the unique
// user_id index and re-reads the winner's row.
func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return fromModel(cart), nil
}

// AddItem appends a line or merges quantities when the product is already
// present. Stock is deliberately not checked here; only checkout reserves.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	if _, err := s.products.FindByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddOrIncrementItem(ctx, cart.ID, req.ProductID, req.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}
	return s.snapshot(ctx, userID)
}

// UpdateQuantity replaces the item's quantity verbatim. Zero removes the
// item; carts never retain zero-quantity lines.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		exists, err := s.repo.ItemExists(ctx, cart.ID, itemID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check cart item")
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
		}
		return s.snapshot(ctx, userID)
	}

	if err := s.repo.SetItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return s.snapshot(ctx, userID)
}

// RemoveItem deletes the line if present. Absence is not an error.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	return s.snapshot(ctx, userID)
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return s.snapshot(ctx, userID)
}

func (s *service) ensureCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	created, err := s.repo.Create(ctx, userID)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_carts_user_id") {
			cart, err := s.repo.FindByUser(ctx, userID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
			}
			return cart, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return created, nil
}

func (s *service) snapshot(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return fromModel(cart), nil
}
