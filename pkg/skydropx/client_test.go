package skydropx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tienda-mx/storefront-backend/pkg/config"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
	"github.com/tienda-mx/storefront-backend/pkg/types"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	client, err := NewClient(context.Background(), config.SkydropxConfig{
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		BaseURL:       baseURL,
		QuotePollWait: time.Millisecond,
		QuoteAttempts: 15,
	}, logg)
	require.NoError(t, err)
	return client
}

func quotationRequest() QuotationRequest {
	return QuotationRequest{
		AddressFrom: types.ShippingAddress{Street: "Av. Reforma 1", City: "CDMX", Province: "CDMX", Zip: "06600", Country: "MX"},
		AddressTo:   types.ShippingAddress{Street: "Calle 2", City: "Monterrey", Province: "NL", Zip: "64000", Country: "MX"},
		Parcels:     []types.Parcel{{Length: 30, Width: 20, Height: 10, Weight: 1}},
	}
}

// tokenHandler answers the oauth exchange and delegates everything else.
func tokenHandler(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/oauth/token" {
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-1",
				"token_type":   "Bearer",
				"expires_in":   7200,
			})
			return
		}
		next(w, r)
	}
}

func TestGetTokenCachesUntilExpiry(t *testing.T) {
	var exchanges int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/oauth/token" {
			atomic.AddInt32(&exchanges, 1)
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 7200})
			return
		}
		json.NewEncoder(w).Encode(Shipment{ID: "shp-1", Status: "in_transit"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.GetShipment(context.Background(), "shp-1")
	require.NoError(t, err)
	_, err = client.GetShipment(context.Background(), "shp-1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&exchanges))
}

func TestGetTokenRefreshesAfterExpiry(t *testing.T) {
	var exchanges int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/oauth/token" {
			atomic.AddInt32(&exchanges, 1)
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 7200})
			return
		}
		json.NewEncoder(w).Encode(Shipment{ID: "shp-1"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	now := time.Now()
	client.tokens.now = func() time.Time { return now }

	_, err := client.GetShipment(context.Background(), "shp-1")
	require.NoError(t, err)

	// Move past the provider-reported expiry; the next call must re-exchange.
	client.tokens.now = func() time.Time { return now.Add(3 * time.Hour) }
	_, err = client.GetShipment(context.Background(), "shp-1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&exchanges))
}

func TestGetTokenFailsWithoutAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token_type": "Bearer"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.GetShipment(context.Background(), "shp-1")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestCreateQuotationStopsEarlyOnUsableRate(t *testing.T) {
	total := 150.0
	var polls int32
	srv := httptest.NewServer(tokenHandler(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/quotations":
			json.NewEncoder(w).Encode(Quotation{ID: "qt-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/quotations/qt-1":
			n := atomic.AddInt32(&polls, 1)
			if n < 3 {
				json.NewEncoder(w).Encode(Quotation{ID: "qt-1", IsCompleted: false})
				return
			}
			json.NewEncoder(w).Encode(Quotation{
				ID:          "qt-1",
				IsCompleted: true,
				Rates:       []Rate{{ID: "rate-1", Status: rateStatusPriceFound, Total: &total}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	quotation, err := client.CreateQuotation(context.Background(), quotationRequest())

	require.NoError(t, err)
	assert.True(t, quotation.HasUsableRate())
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestCreateQuotationSoftTimeoutAfterBoundedAttempts(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(tokenHandler(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/quotations":
			json.NewEncoder(w).Encode(Quotation{ID: "qt-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/quotations/qt-1":
			atomic.AddInt32(&polls, 1)
			json.NewEncoder(w).Encode(Quotation{ID: "qt-1", IsCompleted: false})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	quotation, err := client.CreateQuotation(context.Background(), quotationRequest())

	// Bound exhaustion is a soft timeout: the last-seen quotation comes back.
	require.NoError(t, err)
	assert.False(t, quotation.HasUsableRate())
	assert.Equal(t, int32(15), atomic.LoadInt32(&polls))
}

func TestCreateQuotationRejectsMissingID(t *testing.T) {
	srv := httptest.NewServer(tokenHandler(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Quotation{})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.CreateQuotation(context.Background(), quotationRequest())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRateUsable(t *testing.T) {
	total := 99.0
	tests := []struct {
		name string
		rate Rate
		want bool
	}{
		{"explicit success", Rate{Success: true}, true},
		{"priced", Rate{Status: rateStatusPriceFound, Total: &total}, true},
		{"priced but wrong status", Rate{Status: "price_not_found", Total: &total}, false},
		{"no total", Rate{Status: rateStatusPriceFound}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rate.Usable())
		})
	}
}
