package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tienda-mx/storefront-backend/pkg/enums"
)

// CartLineInput is one cart line as submitted at checkout. Price is the unit
// price snapshot the storefront displayed, carried verbatim into the item row.
type CartLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// CreateOrderInput carries everything needed to create an order. Exactly one
// of UserID or the guest fields identifies the buyer.
type CreateOrderInput struct {
	UserID       *uuid.UUID
	GuestName    *string
	GuestEmail   *string
	GuestAddress *string
	Total        decimal.Decimal
	Items        []CartLineInput
}

// OrderItemRow is an item joined with its product's display fields.
type OrderItemRow struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductImageURL *string         `json:"product_image_url,omitempty"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
}

// OrderDetail is the order merged with its joined items, as returned by the
// order-by-id read.
type OrderDetail struct {
	ID           uuid.UUID         `json:"id"`
	UserID       *uuid.UUID        `json:"user_id,omitempty"`
	GuestName    *string           `json:"guest_name,omitempty"`
	GuestEmail   *string           `json:"guest_email,omitempty"`
	GuestAddress *string           `json:"guest_address,omitempty"`
	Total        decimal.Decimal   `json:"total"`
	Status       enums.OrderStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	Items        []OrderItemRow    `json:"items"`
}
