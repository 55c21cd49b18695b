package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tienda-mx/storefront-backend/api/middleware"
	"github.com/tienda-mx/storefront-backend/api/responses"
	"github.com/tienda-mx/storefront-backend/api/validators"
	internalorders "github.com/tienda-mx/storefront-backend/internal/orders"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
)

type orderLineRequest struct {
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price"`
}

type createOrderRequest struct {
	Items        []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	Total        decimal.Decimal    `json:"total"`
	GuestName    *string            `json:"guest_name,omitempty"`
	GuestEmail   *string            `json:"guest_email,omitempty" validate:"omitempty,email"`
	GuestAddress *string            `json:"guest_address,omitempty"`
}

type createOrderResponse struct {
	OrderID uuid.UUID `json:"orderId"`
}

// CreateOrder accepts a cart submission from an authenticated user or a guest.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			GuestName:    payload.GuestName,
			GuestEmail:   payload.GuestEmail,
			GuestAddress: payload.GuestAddress,
			Total:        payload.Total,
			Items:        make([]internalorders.CartLineInput, 0, len(payload.Items)),
		}
		for _, line := range payload.Items {
			input.Items = append(input.Items, internalorders.CartLineInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			})
		}

		// An authenticated identity wins over guest fields.
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user identity"))
				return
			}
			input.UserID = &userID
			input.GuestName = nil
			input.GuestEmail = nil
			input.GuestAddress = nil
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{OrderID: order.ID})
	}
}

// MyOrders lists the authenticated user's orders, newest first.
func MyOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		list, err := svc.GetUserOrders(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListOrders returns every order. Admin only; the router guards it.
func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		list, err := svc.GetAllOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderDetail returns one order with its items joined to product display fields.
func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetOrderByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
