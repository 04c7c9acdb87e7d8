package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketloop/storefront-backend/pkg/enums"
)

// Order is created atomically from a cart at checkout. Items and total are
// write-once; only Status transitions afterwards.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	TotalCents int               `gorm:"column:total_cents;not null"`
	Status     enums.OrderStatus `gorm:"column:status;not null;default:'placed'"`
	Items      []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
