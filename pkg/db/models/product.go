package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the catalog listing plus its authoritative stock count.
// StockQty is mutated only through the inventory ledger's guarded
// decrement/increment; every other writer treats it as read-only.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	Category    string    `gorm:"column:category;not null;default:''"`
	ImageURL    string    `gorm:"column:image_url;not null;default:''"`
	PriceCents  int       `gorm:"column:price_cents;not null"`
	StockQty    int       `gorm:"column:stock_qty;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
