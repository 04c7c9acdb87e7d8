package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketloop/storefront-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the user's cart with items and product details populated.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts an empty cart for the user. The unique index on user_id
// rejects a second cart; callers treat that as "already exists" and re-read.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// AddOrIncrementItem upserts a line item. Concurrent adds for the same
// product land on the unique (cart_id, product_id) index and fold into one
// atomic increment, so no quantity update is lost.
func (r *Repository) AddOrIncrementItem(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	item := &models.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(item).Error
}

// SetItemQuantity replaces the quantity of an item scoped to the cart.
// Returns gorm.ErrRecordNotFound when the item is not in the cart.
func (r *Repository) SetItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteItem removes an item scoped to the cart. Missing rows are not an
// error; the delete is idempotent.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{}).Error
}

// ItemExists reports whether the item belongs to the cart.
func (r *Repository) ItemExists(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClearItems removes every item from the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}
