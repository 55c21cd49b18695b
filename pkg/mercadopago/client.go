package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tienda-mx/storefront-backend/pkg/config"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
)

var (
	errAccessTokenRequired   = errors.New("mercadopago access token is required")
	errWebhookSecretRequired = errors.New("mercadopago webhook secret is required")
	errLoggerRequired        = errors.New("mercadopago logger is required")
)

// Client talks to the Mercado Pago REST API with centralized auth, logging
// and error mapping.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	webhookSecret string
	logger        *logger.Logger
}

// NewClient initializes the Mercado Pago wrapper and validates credentials.
func NewClient(ctx context.Context, cfg config.MercadoPagoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		baseURL:       baseURL,
		accessToken:   accessToken,
		webhookSecret: webhookSecret,
		logger:        logg,
	}

	logg.Info(ctx, "mercadopago client initialized")
	return c, nil
}

// SigningSecret returns the webhook HMAC secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// PreferenceItem is one payable line inside a checkout preference.
type PreferenceItem struct {
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// PreferenceRequest is the payload for creating a hosted checkout preference.
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
	Payer             *PreferencePayer `json:"payer,omitempty"`
}

// PreferencePayer identifies the paying customer.
type PreferencePayer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Preference is the provider's checkout session object.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment is the authoritative payment resource fetched by id.
type Payment struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

// PaymentStatusApproved is the only status that confirms an order.
const PaymentStatusApproved = "approved"

// CreatePreference creates a hosted checkout preference.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	c.log(ctx, "request", "create_preference", map[string]any{
		"external_reference": req.ExternalReference,
		"item_count":         len(req.Items),
	})

	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &pref); err != nil {
		c.log(ctx, "error", "create_preference", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_preference", map[string]any{"preference_id": pref.ID})
	return &pref, nil
}

// GetPayment fetches the canonical payment state by id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": paymentID})

	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &payment); err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
	return &payment, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode mercadopago request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build mercadopago request")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mercadopago request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read mercadopago response")
	}

	if resp.StatusCode >= 400 {
		return pkgerrors.New(domainCodeForStatus(resp.StatusCode),
			fmt.Sprintf("mercadopago %s %s returned %d", method, path, resp.StatusCode)).
			WithDetails(map[string]any{"body": truncate(string(raw), 512)})
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode mercadopago response")
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mercadopago %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mercadopago %s", phase))
	}
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
