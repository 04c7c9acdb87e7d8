package cart

import (
	"github.com/google/uuid"

	"github.com/marketloop/storefront-backend/internal/products"
	"github.com/marketloop/storefront-backend/pkg/db/models"
)

// CartDTO is the snapshot returned by every cart operation.
type CartDTO struct {
	ID            uuid.UUID     `json:"id"`
	Items         []CartItemDTO `json:"items"`
	SubtotalCents int           `json:"subtotal_cents"`
}

// CartItemDTO carries one line with its product populated.
type CartItemDTO struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"product_id"`
	Quantity  int                  `json:"quantity"`
	Product   *products.ProductDTO `json:"product,omitempty"`
}

// AddItemRequest is the payload for POST /cart/add.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityRequest is the payload for PUT /cart/update/{itemID}.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func fromModel(c *models.Cart) *CartDTO {
	if c == nil {
		return nil
	}

	items := make([]CartItemDTO, 0, len(c.Items))
	subtotal := 0
	for i := range c.Items {
		item := &c.Items[i]
		dto := CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   products.FromModel(item.Product),
		}
		if item.Product != nil {
			subtotal += item.Product.PriceCents * item.Quantity
		}
		items = append(items, dto)
	}

	return &CartDTO{ID: c.ID, Items: items, SubtotalCents: subtotal}
}
