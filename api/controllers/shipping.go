package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tienda-mx/storefront-backend/api/responses"
	"github.com/tienda-mx/storefront-backend/api/validators"
	internalshipping "github.com/tienda-mx/storefront-backend/internal/shipping"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
	"github.com/tienda-mx/storefront-backend/pkg/skydropx"
	"github.com/tienda-mx/storefront-backend/pkg/types"
)

type quoteRequest struct {
	Quotation skydropx.QuotationRequest `json:"quotation"`
}

// ShippingQuote forwards a quotation request to the carrier and returns the
// completed quotation with its rates.
func ShippingQuote(svc internalshipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quotation, err := svc.Quote(r.Context(), payload.Quotation)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quotation)
	}
}

type shippingWriteRequest struct {
	OrderID             uuid.UUID              `json:"order_id,omitempty"`
	ShippingQuotationID *string                `json:"shipping_quotation_id,omitempty"`
	ShippingRateID      *string                `json:"shipping_rate_id,omitempty"`
	AddressFrom         *types.ShippingAddress `json:"address_from,omitempty"`
	AddressTo           *types.ShippingAddress `json:"address_to,omitempty"`
	Parcels             []types.Parcel         `json:"parcels,omitempty"`
	TrackingNumber      *string                `json:"tracking_number,omitempty"`
}

func (req shippingWriteRequest) toInput() internalshipping.UpsertShippingInput {
	return internalshipping.UpsertShippingInput{
		OrderID:             req.OrderID,
		ShippingQuotationID: req.ShippingQuotationID,
		ShippingRateID:      req.ShippingRateID,
		AddressFrom:         req.AddressFrom,
		AddressTo:           req.AddressTo,
		Parcels:             req.Parcels,
		TrackingNumber:      req.TrackingNumber,
	}
}

// ShippingUpsert creates the order's shipping record or merges new fields into
// the existing one. A label is purchased once the record has a chosen rate.
func ShippingUpsert(svc internalshipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		var payload shippingWriteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.OrderID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required"))
			return
		}

		record, err := svc.UpsertRecord(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// ShippingUpdate applies a partial update to an existing shipping record by id.
func ShippingUpdate(svc internalshipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		shippingID, err := validators.ParsePathUUID(r, "shippingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shippingWriteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateRecord(r.Context(), shippingID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// ShipmentByOrder returns the provider-side shipment state for an order.
func ShipmentByOrder(svc internalshipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetShipmentByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
