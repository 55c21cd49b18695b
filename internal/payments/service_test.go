package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/mercadopago"
)

type stubProvider struct {
	lastRequest mercadopago.PreferenceRequest
	preference  *mercadopago.Preference
	err         error
}

func (s *stubProvider) CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	s.lastRequest = req
	if s.err != nil {
		return nil, s.err
	}
	return s.preference, nil
}

func newTestService(t *testing.T, provider *stubProvider) Service {
	t.Helper()
	svc, err := NewService(provider, "https://store.example.com/")
	require.NoError(t, err)
	return svc
}

func TestCreatePreferenceBuildsProviderRequest(t *testing.T) {
	provider := &stubProvider{preference: &mercadopago.Preference{
		ID:        "pref-1",
		InitPoint: "https://pay.example.com/checkout/pref-1",
	}}
	svc := newTestService(t, provider)
	orderID := uuid.New()

	result, err := svc.CreatePreference(context.Background(), CreatePreferenceInput{
		OrderID:    orderID,
		PayerName:  "Ana",
		PayerEmail: "ana@example.com",
		Items: []CartItemInput{
			{Name: "Ceramic Mug", Quantity: 2, Price: decimal.NewFromFloat(9.99)},
			{Name: "Free Sample", Quantity: 0, Price: decimal.NewFromFloat(0.25)},
		},
		ShippingPrice: decimal.NewFromFloat(120.00),
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", result.ID)
	assert.Equal(t, "https://pay.example.com/checkout/pref-1", result.CheckoutURL)

	req := provider.lastRequest
	assert.Equal(t, orderID.String(), req.ExternalReference)
	assert.Equal(t, "https://store.example.com"+WebhookPath, req.NotificationURL)
	require.NotNil(t, req.Payer)
	assert.Equal(t, "ana@example.com", req.Payer.Email)

	require.Len(t, req.Items, 3)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.InDelta(t, 9.99, req.Items[0].UnitPrice, 0.001)
	// floors applied to the sub-minimum line
	assert.Equal(t, 1, req.Items[1].Quantity)
	assert.InDelta(t, 1.0, req.Items[1].UnitPrice, 0.001)
	// synthetic shipping line
	assert.Equal(t, "shipping", req.Items[2].Title)
	assert.Equal(t, 1, req.Items[2].Quantity)
	assert.InDelta(t, 120.0, req.Items[2].UnitPrice, 0.001)
}

func TestCreatePreferenceSkipsShippingLineWhenZero(t *testing.T) {
	provider := &stubProvider{preference: &mercadopago.Preference{
		ID:        "pref-2",
		InitPoint: "https://pay.example.com/checkout/pref-2",
	}}
	svc := newTestService(t, provider)

	_, err := svc.CreatePreference(context.Background(), CreatePreferenceInput{
		OrderID: uuid.New(),
		Items:   []CartItemInput{{Name: "Poster", Quantity: 1, Price: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)
	assert.Len(t, provider.lastRequest.Items, 1)
	assert.Nil(t, provider.lastRequest.Payer)
}

func TestCreatePreferenceValidation(t *testing.T) {
	svc := newTestService(t, &stubProvider{})

	_, err := svc.CreatePreference(context.Background(), CreatePreferenceInput{
		Items: []CartItemInput{{Name: "Poster", Quantity: 1, Price: decimal.NewFromInt(5)}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreatePreference(context.Background(), CreatePreferenceInput{OrderID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreatePreferenceIncompleteProviderResponse(t *testing.T) {
	provider := &stubProvider{preference: &mercadopago.Preference{ID: "pref-3"}}
	svc := newTestService(t, provider)

	_, err := svc.CreatePreference(context.Background(), CreatePreferenceInput{
		OrderID: uuid.New(),
		Items:   []CartItemInput{{Name: "Poster", Quantity: 1, Price: decimal.NewFromInt(5)}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestCreatePreferenceFallsBackToSandboxURL(t *testing.T) {
	provider := &stubProvider{preference: &mercadopago.Preference{
		ID:               "pref-4",
		SandboxInitPoint: "https://sandbox.pay.example.com/checkout/pref-4",
	}}
	svc := newTestService(t, provider)

	result, err := svc.CreatePreference(context.Background(), CreatePreferenceInput{
		OrderID: uuid.New(),
		Items:   []CartItemInput{{Name: "Poster", Quantity: 1, Price: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.pay.example.com/checkout/pref-4", result.CheckoutURL)
}
