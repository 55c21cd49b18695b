package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tienda-mx/storefront-backend/pkg/enums"
)

// Order is the durable record of a customer's intent to purchase a set of
// items at a fixed total. Rows are never deleted; the total is authoritative
// for the payment amount and is never recomputed from items.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID       *uuid.UUID        `gorm:"column:user_id;type:uuid"`
	GuestName    *string           `gorm:"column:guest_name"`
	GuestEmail   *string           `gorm:"column:guest_email"`
	GuestAddress *string           `gorm:"column:guest_address"`
	Total        decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Status       enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Items        []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// IsGuest reports whether the order was placed without an account.
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}
