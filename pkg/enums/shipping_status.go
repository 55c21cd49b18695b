package enums

// ShippingStatus mirrors the carrier-side shipment state persisted locally.
type ShippingStatus string

const (
	ShippingStatusQuoted    ShippingStatus = "quoted"
	ShippingStatusCreated   ShippingStatus = "created"
	ShippingStatusInTransit ShippingStatus = "in_transit"
	ShippingStatusDelivered ShippingStatus = "delivered"
)
