package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tienda-mx/storefront-backend/pkg/db/models"
	"github.com/tienda-mx/storefront-backend/pkg/enums"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
	"github.com/tienda-mx/storefront-backend/pkg/skydropx"
)

type carrierClient interface {
	CreateQuotation(ctx context.Context, req skydropx.QuotationRequest) (*skydropx.Quotation, error)
	CreateShipment(ctx context.Context, req skydropx.ShipmentRequest) (*skydropx.Shipment, error)
	GetShipment(ctx context.Context, shipmentID string) (*skydropx.Shipment, error)
}

type orderChecker interface {
	FindOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// Service drives the quote → record → label → tracking workflow against the
// carrier provider, keyed by order id.
type Service interface {
	Quote(ctx context.Context, req skydropx.QuotationRequest) (*skydropx.Quotation, error)
	UpsertRecord(ctx context.Context, input UpsertShippingInput) (*models.Shipping, error)
	UpdateRecord(ctx context.Context, shippingID uuid.UUID, input UpsertShippingInput) (*models.Shipping, error)
	GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*ShipmentView, error)
}

type service struct {
	repo    Repository
	orders  orderChecker
	carrier carrierClient
	logger  *logger.Logger
}

// NewService builds the shipping service with the required dependencies.
func NewService(repo Repository, orders orderChecker, carrier carrierClient, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carrier == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	return &service{repo: repo, orders: orders, carrier: carrier, logger: logg}, nil
}

func (s *service) Quote(ctx context.Context, req skydropx.QuotationRequest) (*skydropx.Quotation, error) {
	if len(req.Parcels) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one parcel is required")
	}
	return s.carrier.CreateQuotation(ctx, req)
}

func (s *service) UpsertRecord(ctx context.Context, input UpsertShippingInput) (*models.Shipping, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	if _, err := s.orders.FindOrderByID(ctx, input.OrderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	record, err := s.repo.FindByOrderID(ctx, input.OrderID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = &models.Shipping{
			ID:                     uuid.New(),
			OrderID:                input.OrderID,
			ShippingQuotationID:    input.ShippingQuotationID,
			ShippingRateID:         input.ShippingRateID,
			AddressFrom:            input.AddressFrom,
			AddressTo:              input.AddressTo,
			Parcels:                input.Parcels,
			SkydropxOrderID:        input.SkydropxOrderID,
			SkydropxTrackingNumber: input.TrackingNumber,
			Status:                 enums.ShippingStatusQuoted,
		}
		if input.Status != nil {
			record.Status = *input.Status
		}
		if _, err := s.repo.CreateShipping(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert shipping record")
		}
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping record")
	default:
		if err := s.repo.UpdateShipping(ctx, record.ID, input.updates()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipping record")
		}
		record, err = s.repo.FindByID(ctx, record.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload shipping record")
		}
	}

	return s.maybePurchaseLabel(ctx, record)
}

func (s *service) UpdateRecord(ctx context.Context, shippingID uuid.UUID, input UpsertShippingInput) (*models.Shipping, error) {
	if shippingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping id required")
	}

	record, err := s.repo.FindByID(ctx, shippingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping record")
	}

	if err := s.repo.UpdateShipping(ctx, record.ID, input.updates()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipping record")
	}
	record, err = s.repo.FindByID(ctx, record.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload shipping record")
	}

	return s.maybePurchaseLabel(ctx, record)
}

// maybePurchaseLabel creates the carrier shipment once a record has a chosen
// rate but no external shipment yet. The external id write makes the purchase
// effectively once-only: a second pass sees it set and skips.
func (s *service) maybePurchaseLabel(ctx context.Context, record *models.Shipping) (*models.Shipping, error) {
	if record.SkydropxOrderID != nil ||
		record.ShippingQuotationID == nil || record.ShippingRateID == nil ||
		record.AddressFrom == nil || record.AddressTo == nil || len(record.Parcels) == 0 {
		return record, nil
	}

	shipment, err := s.carrier.CreateShipment(ctx, skydropx.ShipmentRequest{
		QuotationID: *record.ShippingQuotationID,
		RateID:      *record.ShippingRateID,
		AddressFrom: *record.AddressFrom,
		AddressTo:   *record.AddressTo,
		Parcels:     record.Parcels,
	})
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"skydropx_order_id": shipment.ID,
		"status":            enums.ShippingStatusCreated,
	}
	if shipment.TrackingNumber != "" {
		updates["skydropx_tracking_number"] = shipment.TrackingNumber
	}
	if err := s.repo.UpdateShipping(ctx, record.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist shipment link")
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithOrderID(ctx, record.OrderID.String()), "carrier shipment created")
	}

	record, err = s.repo.FindByID(ctx, record.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload shipping record")
	}
	return record, nil
}

func (s *service) GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*ShipmentView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	record, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no shipping record for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping record")
	}
	if record.SkydropxOrderID == nil || *record.SkydropxOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no shipment yet")
	}

	shipment, err := s.carrier.GetShipment(ctx, *record.SkydropxOrderID)
	if err != nil {
		return nil, err
	}

	// write-through fill: persist a tracking number the provider assigned
	// after our last look
	if shipment.TrackingNumber != "" &&
		(record.SkydropxTrackingNumber == nil || *record.SkydropxTrackingNumber != shipment.TrackingNumber) {
		updates := map[string]any{"skydropx_tracking_number": shipment.TrackingNumber}
		if err := s.repo.UpdateShipping(ctx, record.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist tracking number")
		}
		tracking := shipment.TrackingNumber
		record.SkydropxTrackingNumber = &tracking
	}

	return &ShipmentView{Record: record, Shipment: shipment}, nil
}
