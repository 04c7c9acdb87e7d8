package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketloop/storefront-backend/pkg/db/models"
	"github.com/marketloop/storefront-backend/pkg/enums"
	"github.com/marketloop/storefront-backend/pkg/money"
)

// OrderDTO is the transport shape for a placed order.
type OrderDTO struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	Total      string            `json:"total"`
	TotalCents int               `json:"total_cents"`
	Status     enums.OrderStatus `json:"status"`
	Items      []OrderItemDTO    `json:"items"`
	CreatedAt  time.Time         `json:"created_at"`
}

// OrderItemDTO carries one immutable line with its purchase-time snapshot.
type OrderItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	UnitPrice      string    `json:"unit_price"`
	UnitPriceCents int       `json:"unit_price_cents"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}

	items := make([]OrderItemDTO, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPrice:      money.FormatCents(item.UnitPriceCents),
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	return &OrderDTO{
		ID:         o.ID,
		UserID:     o.UserID,
		Total:      money.FormatCents(o.TotalCents),
		TotalCents: o.TotalCents,
		Status:     o.Status,
		Items:      items,
		CreatedAt:  o.CreatedAt,
	}
}
