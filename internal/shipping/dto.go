package shipping

import (
	"github.com/google/uuid"

	"github.com/tienda-mx/storefront-backend/pkg/db/models"
	"github.com/tienda-mx/storefront-backend/pkg/enums"
	"github.com/tienda-mx/storefront-backend/pkg/skydropx"
	"github.com/tienda-mx/storefront-backend/pkg/types"
)

// UpsertShippingInput carries the writable fields of a shipping record. Nil
// fields are left untouched on update; set fields win last-write-wins.
type UpsertShippingInput struct {
	OrderID             uuid.UUID
	ShippingQuotationID *string
	ShippingRateID      *string
	AddressFrom         *types.ShippingAddress
	AddressTo           *types.ShippingAddress
	Parcels             []types.Parcel
	SkydropxOrderID     *string
	TrackingNumber      *string
	Status              *enums.ShippingStatus
}

// updates builds the column map for a partial update, skipping unset fields.
func (in UpsertShippingInput) updates() map[string]any {
	updates := map[string]any{}
	if in.ShippingQuotationID != nil {
		updates["shipping_quotation_id"] = *in.ShippingQuotationID
	}
	if in.ShippingRateID != nil {
		updates["shipping_rate_id"] = *in.ShippingRateID
	}
	if in.AddressFrom != nil {
		updates["address_from"] = in.AddressFrom
	}
	if in.AddressTo != nil {
		updates["address_to"] = in.AddressTo
	}
	if in.Parcels != nil {
		updates["parcels"] = in.Parcels
	}
	if in.SkydropxOrderID != nil {
		updates["skydropx_order_id"] = *in.SkydropxOrderID
	}
	if in.TrackingNumber != nil {
		updates["skydropx_tracking_number"] = *in.TrackingNumber
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	return updates
}

// ShipmentView merges the local shipping record with the provider's current
// shipment state.
type ShipmentView struct {
	Record   *models.Shipping   `json:"record"`
	Shipment *skydropx.Shipment `json:"shipment"`
}
