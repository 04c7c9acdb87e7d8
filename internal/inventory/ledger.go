// Package inventory owns every stock mutation. Reservations are single
// guarded UPDATEs so the non-negative stock invariant holds under concurrent
// checkouts without row locks held across service calls.
package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/marketloop/storefront-backend/pkg/errors"
)

// Ledger applies stock reservations and releases against the products table.
type Ledger struct {
	db *gorm.DB
}

// NewLedger constructs a ledger bound to the provided GORM DB.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx binds the ledger to a transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	return &Ledger{db: tx}
}

// Reserve atomically decrements stock for a product. The WHERE clause carries
// the availability check, so two competing reservations can never drive stock
// below zero: the loser matches no row and gets INSUFFICIENT_STOCK.
func (l *Ledger) Reserve(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}

	res := l.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_qty = stock_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_qty >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID, "requested": qty})
	}
	return nil
}

// Release returns previously reserved stock. It compensates a successful
// Reserve, so the quantity is added back unconditionally.
func (l *Ledger) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be positive")
	}

	res := l.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_qty = stock_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
