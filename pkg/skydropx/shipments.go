package skydropx

import (
	"context"
	"net/http"

	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/types"
)

// ShipmentRequest purchases a rate from a resolved quotation.
type ShipmentRequest struct {
	QuotationID string                `json:"quotation_id"`
	RateID      string                `json:"rate_id"`
	AddressFrom types.ShippingAddress `json:"address_from"`
	AddressTo   types.ShippingAddress `json:"address_to"`
	Parcels     []types.Parcel        `json:"parcels"`
}

// Shipment is the provider's shipment/label object.
type Shipment struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url_provider"`
	LabelURL       string `json:"label_url"`
}

// CreateShipment purchases the rate and creates the carrier shipment.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error) {
	c.log(ctx, "request", "create_shipment", map[string]any{
		"quotation_id": req.QuotationID,
		"rate_id":      req.RateID,
	})

	var shipment Shipment
	if err := c.do(ctx, http.MethodPost, "/api/v1/shipments", map[string]any{"shipment": req}, &shipment, true); err != nil {
		c.log(ctx, "error", "create_shipment", map[string]any{"error": err.Error()})
		return nil, err
	}
	if shipment.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "skydropx shipment creation returned no id")
	}

	c.log(ctx, "response", "create_shipment", map[string]any{"shipment_id": shipment.ID})
	return &shipment, nil
}

// GetShipment fetches the shipment status and tracking data by external id.
func (c *Client) GetShipment(ctx context.Context, shipmentID string) (*Shipment, error) {
	if shipmentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id is required")
	}

	var shipment Shipment
	if err := c.do(ctx, http.MethodGet, "/api/v1/shipments/"+shipmentID, nil, &shipment, true); err != nil {
		return nil, err
	}
	return &shipment, nil
}
