package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalshipping "github.com/tienda-mx/storefront-backend/internal/shipping"
	"github.com/tienda-mx/storefront-backend/pkg/db/models"
	"github.com/tienda-mx/storefront-backend/pkg/skydropx"
)

type stubShippingService struct {
	quote    func(ctx context.Context, req skydropx.QuotationRequest) (*skydropx.Quotation, error)
	upsert   func(ctx context.Context, input internalshipping.UpsertShippingInput) (*models.Shipping, error)
	update   func(ctx context.Context, shippingID uuid.UUID, input internalshipping.UpsertShippingInput) (*models.Shipping, error)
	shipment func(ctx context.Context, orderID uuid.UUID) (*internalshipping.ShipmentView, error)
}

func (s *stubShippingService) Quote(ctx context.Context, req skydropx.QuotationRequest) (*skydropx.Quotation, error) {
	if s.quote != nil {
		return s.quote(ctx, req)
	}
	return &skydropx.Quotation{ID: "q-1", IsCompleted: true}, nil
}

func (s *stubShippingService) UpsertRecord(ctx context.Context, input internalshipping.UpsertShippingInput) (*models.Shipping, error) {
	if s.upsert != nil {
		return s.upsert(ctx, input)
	}
	return &models.Shipping{ID: uuid.New(), OrderID: input.OrderID}, nil
}

func (s *stubShippingService) UpdateRecord(ctx context.Context, shippingID uuid.UUID, input internalshipping.UpsertShippingInput) (*models.Shipping, error) {
	if s.update != nil {
		return s.update(ctx, shippingID, input)
	}
	return &models.Shipping{ID: shippingID}, nil
}

func (s *stubShippingService) GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*internalshipping.ShipmentView, error) {
	if s.shipment != nil {
		return s.shipment(ctx, orderID)
	}
	return &internalshipping.ShipmentView{}, nil
}

func TestShippingQuoteUnwrapsEnvelope(t *testing.T) {
	svc := &stubShippingService{
		quote: func(ctx context.Context, req skydropx.QuotationRequest) (*skydropx.Quotation, error) {
			if req.AddressTo.Zip != "06600" {
				t.Fatalf("destination zip not carried through, got %q", req.AddressTo.Zip)
			}
			if len(req.Parcels) != 1 {
				t.Fatalf("expected one parcel, got %d", len(req.Parcels))
			}
			return &skydropx.Quotation{ID: "q-77", IsCompleted: true}, nil
		},
	}

	body := `{"quotation":{"address_from":{"street1":"Origen 1","city":"CDMX","province":"CDMX","zip":"01000","country":"MX"},"address_to":{"street1":"Destino 2","city":"CDMX","province":"CDMX","zip":"06600","country":"MX"},"parcels":[{"weight":1,"height":10,"width":10,"length":10}]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/quote", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ShippingQuote(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data skydropx.Quotation `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != "q-77" {
		t.Fatalf("unexpected quotation id %q", envelope.Data.ID)
	}
}

func TestShippingUpsertRequiresOrderID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping", strings.NewReader(`{"shipping_rate_id":"rate-1"}`))
	resp := httptest.NewRecorder()
	ShippingUpsert(&stubShippingService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestShippingUpsertForwardsFields(t *testing.T) {
	orderID := uuid.New()
	svc := &stubShippingService{
		upsert: func(ctx context.Context, input internalshipping.UpsertShippingInput) (*models.Shipping, error) {
			if input.OrderID != orderID {
				t.Fatalf("expected order id %s got %s", orderID, input.OrderID)
			}
			if input.ShippingQuotationID == nil || *input.ShippingQuotationID != "q-1" {
				t.Fatalf("quotation id not carried through")
			}
			if input.ShippingRateID == nil || *input.ShippingRateID != "rate-1" {
				t.Fatalf("rate id not carried through")
			}
			return &models.Shipping{ID: uuid.New(), OrderID: input.OrderID}, nil
		},
	}

	body := `{"order_id":"` + orderID.String() + `","shipping_quotation_id":"q-1","shipping_rate_id":"rate-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ShippingUpsert(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestShippingUpdateParsesPathID(t *testing.T) {
	shippingID := uuid.New()
	svc := &stubShippingService{
		update: func(ctx context.Context, gotID uuid.UUID, input internalshipping.UpsertShippingInput) (*models.Shipping, error) {
			if gotID != shippingID {
				t.Fatalf("expected shipping id %s got %s", shippingID, gotID)
			}
			if input.TrackingNumber == nil || *input.TrackingNumber != "TRK-1" {
				t.Fatalf("tracking number not carried through")
			}
			return &models.Shipping{ID: gotID}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/shipping/"+shippingID.String(), strings.NewReader(`{"tracking_number":"TRK-1"}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("shippingId", shippingID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	ShippingUpdate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestShipmentByOrderBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipping/by-order/not-a-uuid", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	ShipmentByOrder(&stubShippingService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
