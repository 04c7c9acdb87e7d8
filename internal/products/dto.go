package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketloop/storefront-backend/pkg/db/models"
	"github.com/marketloop/storefront-backend/pkg/money"
)

// ProductDTO is the catalog shape served to clients. Price is formatted as a
// dollar string to match what the storefront renders.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	Price       string    `json:"price"`
	PriceCents  int       `json:"price_cents"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductInput carries a new catalog entry. Price arrives as a dollar
// string and is stored in cents.
type CreateProductInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
	Category    string `json:"category" validate:"max=100"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Price       string `json:"price" validate:"required"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

// UpdateProductInput applies a partial update; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	Price       *string `json:"price"`
	Stock       *int    `json:"stock" validate:"omitempty,gte=0"`
}

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Category string
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}

	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Price:       money.FormatCents(p.PriceCents),
		PriceCents:  p.PriceCents,
		Stock:       p.StockQty,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
