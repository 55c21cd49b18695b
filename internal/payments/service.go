package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/mercadopago"
)

// WebhookPath is where the payment provider posts status notifications.
const WebhookPath = "/api/v1/webhooks/payment"

type preferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

// CartItemInput is a displayable cart line for the hosted checkout page.
type CartItemInput struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// CreatePreferenceInput carries the cart plus payer identity for a checkout
// preference. Payer fields come from the authenticated user when present,
// else from the guest-supplied values.
type CreatePreferenceInput struct {
	OrderID       uuid.UUID
	Items         []CartItemInput
	PayerName     string
	PayerEmail    string
	ShippingPrice decimal.Decimal
}

// PreferenceResult is what the storefront needs to redirect the buyer.
type PreferenceResult struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
}

// Service builds hosted checkout preferences against the payment provider.
type Service interface {
	CreatePreference(ctx context.Context, input CreatePreferenceInput) (*PreferenceResult, error)
}

type service struct {
	provider        preferenceCreator
	notificationURL string
}

// NewService wires the preference service to the provider client. The
// notification URL is derived from the public base URL so the provider can
// reach the webhook endpoint.
func NewService(provider preferenceCreator, publicBaseURL string) (Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("payment provider client required")
	}
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("public base url required")
	}
	return &service{
		provider:        provider,
		notificationURL: base + WebhookPath,
	}, nil
}

func (s *service) CreatePreference(ctx context.Context, input CreatePreferenceInput) (*PreferenceResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
	}

	items := make([]mercadopago.PreferenceItem, 0, len(input.Items)+1)
	for _, line := range input.Items {
		items = append(items, mercadopago.PreferenceItem{
			Title:     line.Name,
			Quantity:  floorQuantity(line.Quantity),
			UnitPrice: floorUnitPrice(line.Price),
		})
	}
	if input.ShippingPrice.IsPositive() {
		items = append(items, mercadopago.PreferenceItem{
			Title:     "shipping",
			Quantity:  1,
			UnitPrice: floorUnitPrice(input.ShippingPrice),
		})
	}

	req := mercadopago.PreferenceRequest{
		Items: items,
		// the reconciler resolves the order through this field later
		ExternalReference: input.OrderID.String(),
		NotificationURL:   s.notificationURL,
	}
	if input.PayerName != "" || input.PayerEmail != "" {
		req.Payer = &mercadopago.PreferencePayer{
			Name:  input.PayerName,
			Email: input.PayerEmail,
		}
	}

	pref, err := s.provider.CreatePreference(ctx, req)
	if err != nil {
		return nil, err
	}

	checkoutURL := pref.InitPoint
	if checkoutURL == "" {
		checkoutURL = pref.SandboxInitPoint
	}
	if pref.ID == "" || checkoutURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider preference missing id or checkout url")
	}

	return &PreferenceResult{ID: pref.ID, CheckoutURL: checkoutURL}, nil
}

// floorQuantity satisfies the provider's minimum-quantity constraint.
func floorQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// floorUnitPrice satisfies the provider's minimum-amount constraint.
func floorUnitPrice(p decimal.Decimal) float64 {
	if p.LessThan(decimal.NewFromInt(1)) {
		return 1
	}
	return p.InexactFloat64()
}
