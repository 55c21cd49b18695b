package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tienda-mx/storefront-backend/pkg/enums"
	"github.com/tienda-mx/storefront-backend/pkg/types"
)

// Shipping links an order to its carrier-side quotation and shipment. Rows
// are created once the order exists and are mutated by the shipment-creation
// and tracking-refresh flows; they are never deleted.
type Shipping struct {
	ID                     uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID                uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ShippingQuotationID    *string               `gorm:"column:shipping_quotation_id"`
	ShippingRateID         *string               `gorm:"column:shipping_rate_id"`
	AddressFrom            *types.ShippingAddress `gorm:"column:address_from;type:jsonb;serializer:json"`
	AddressTo              *types.ShippingAddress `gorm:"column:address_to;type:jsonb;serializer:json"`
	Parcels                []types.Parcel         `gorm:"column:parcels;type:jsonb;serializer:json"`
	SkydropxOrderID        *string               `gorm:"column:skydropx_order_id"`
	SkydropxTrackingNumber *string               `gorm:"column:skydropx_tracking_number"`
	Status                 enums.ShippingStatus  `gorm:"column:status;type:text;not null;default:'quoted'"`
	CreatedAt              time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
