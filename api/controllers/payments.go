package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tienda-mx/storefront-backend/api/responses"
	"github.com/tienda-mx/storefront-backend/api/validators"
	"github.com/tienda-mx/storefront-backend/internal/payments"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
)

type cartItemRequest struct {
	Name     string          `json:"name" validate:"required"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
}

type createPreferenceRequest struct {
	OrderID       uuid.UUID         `json:"orderId" validate:"required"`
	CartItems     []cartItemRequest `json:"cartItems" validate:"required,min=1,dive"`
	UserName      string            `json:"userName,omitempty"`
	UserEmail     string            `json:"userEmail,omitempty" validate:"omitempty,email"`
	ShippingPrice decimal.Decimal   `json:"shipping_price,omitempty"`
}

// CreatePreference builds a hosted checkout preference for an existing order
// and returns the redirect URL the storefront sends the buyer to.
func CreatePreference(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload createPreferenceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payments.CreatePreferenceInput{
			OrderID:       payload.OrderID,
			PayerName:     payload.UserName,
			PayerEmail:    payload.UserEmail,
			ShippingPrice: payload.ShippingPrice,
			Items:         make([]payments.CartItemInput, 0, len(payload.CartItems)),
		}
		for _, item := range payload.CartItems {
			input.Items = append(input.Items, payments.CartItemInput{
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    item.Price,
			})
		}

		result, err := svc.CreatePreference(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
