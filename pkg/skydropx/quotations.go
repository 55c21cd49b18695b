package skydropx

import (
	"context"
	"errors"
	"net/http"

	"github.com/sethvargo/go-retry"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/types"
)

// QuotationRequest asks the carrier network for rates between two addresses.
type QuotationRequest struct {
	AddressFrom       types.ShippingAddress `json:"address_from"`
	AddressTo         types.ShippingAddress `json:"address_to"`
	Parcels           []types.Parcel        `json:"parcels"`
	RequestedCarriers []string              `json:"requested_carriers,omitempty"`
}

// Rate is one carrier offer inside a quotation.
type Rate struct {
	ID           string   `json:"id"`
	ProviderName string   `json:"provider_name"`
	Success      bool     `json:"success"`
	Status       string   `json:"status"`
	Total        *float64 `json:"total"`
	Currency     string   `json:"currency"`
	Days         int      `json:"days"`
}

// Quotation is the provider's (possibly still-resolving) rate collection.
type Quotation struct {
	ID          string `json:"id"`
	IsCompleted bool   `json:"is_completed"`
	Rates       []Rate `json:"rates"`
}

const rateStatusPriceFound = "price_found_internal"

// Usable reports whether the rate can actually be purchased. A rate counts
// when the provider flags it successful or when it carries a priced total.
func (r Rate) Usable() bool {
	if r.Success {
		return true
	}
	return r.Total != nil && r.Status == rateStatusPriceFound
}

// HasUsableRate reports whether any rate in the quotation qualifies.
func (q *Quotation) HasUsableRate() bool {
	if q == nil {
		return false
	}
	for _, rate := range q.Rates {
		if rate.Usable() {
			return true
		}
	}
	return false
}

var errQuotationPending = errors.New("quotation still resolving")

// CreateQuotation submits a quotation and waits for the carrier rates to
// resolve, polling at a fixed interval up to a bounded attempt count. When
// the bound is exhausted the last-seen quotation is returned as-is; callers
// must check for usable rates themselves.
func (c *Client) CreateQuotation(ctx context.Context, req QuotationRequest) (*Quotation, error) {
	c.log(ctx, "request", "create_quotation", map[string]any{
		"parcel_count": len(req.Parcels),
	})

	var created Quotation
	if err := c.do(ctx, http.MethodPost, "/api/v1/quotations", map[string]any{"quotation": req}, &created, true); err != nil {
		c.log(ctx, "error", "create_quotation", map[string]any{"error": err.Error()})
		return nil, err
	}
	if created.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "skydropx quotation creation returned no id")
	}

	c.log(ctx, "response", "create_quotation", map[string]any{"quotation_id": created.ID})
	return c.pollQuotation(ctx, created.ID, &created)
}

// GetQuotation fetches the quotation by id.
func (c *Client) GetQuotation(ctx context.Context, quotationID string) (*Quotation, error) {
	if quotationID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation id is required")
	}
	var quotation Quotation
	if err := c.do(ctx, http.MethodGet, "/api/v1/quotations/"+quotationID, nil, &quotation, true); err != nil {
		return nil, err
	}
	return &quotation, nil
}

// pollQuotation re-reads the quotation at a fixed interval until it is
// completed with a usable rate or the attempt bound is hit.
func (c *Client) pollQuotation(ctx context.Context, quotationID string, lastSeen *Quotation) (*Quotation, error) {
	if lastSeen.IsCompleted && lastSeen.HasUsableRate() {
		return lastSeen, nil
	}

	backoff := retry.WithMaxRetries(uint64(c.pollAttempts-1), retry.NewConstant(c.pollWait))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		quotation, err := c.GetQuotation(ctx, quotationID)
		if err != nil {
			return err
		}
		lastSeen = quotation
		if quotation.IsCompleted && quotation.HasUsableRate() {
			return nil
		}
		return retry.RetryableError(errQuotationPending)
	})
	if err != nil && !errors.Is(err, errQuotationPending) {
		return nil, err
	}

	c.log(ctx, "response", "poll_quotation", map[string]any{
		"quotation_id": quotationID,
		"completed":    lastSeen.IsCompleted,
		"rate_count":   len(lastSeen.Rates),
	})
	// Soft timeout: hand back whatever the last poll yielded.
	return lastSeen, nil
}
