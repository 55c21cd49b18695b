package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tienda-mx/storefront-backend/api/responses"
	paymentwebhook "github.com/tienda-mx/storefront-backend/internal/webhooks/payment"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
)

type PaymentWebhookService interface {
	HandleNotification(ctx context.Context, n *paymentwebhook.Notification) error
}

type paymentWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type paymentClient interface {
	SigningSecret() string
}

// PaymentWebhook receives payment notifications from the provider.
//
// Unverifiable or malformed deliveries are acknowledged with 200 and dropped:
// answering with an error would only make the provider retry a delivery that
// can never succeed. Only a transient failure while reconciling (provider
// re-fetch, database) surfaces as an error so the provider retries it.
func PaymentWebhook(svc PaymentWebhookService, client paymentClient, guard paymentWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		notification, err := paymentwebhook.ParseNotification(payload)
		if err != nil {
			warn(ctx, logg, "payment webhook dropped: undecodable payload")
			responses.WriteSuccess(w, nil)
			return
		}

		dataID := notification.DataID()
		xSignature := r.Header.Get("x-signature")
		xRequestID := r.Header.Get("x-request-id")

		if !paymentwebhook.VerifySignature(client.SigningSecret(), xSignature, xRequestID, dataID) {
			warn(ctx, logg, fmt.Sprintf("payment webhook dropped: signature rejected for data id %q", dataID))
			responses.WriteSuccess(w, nil)
			return
		}

		// Redis fast path only; the paid-transition guard in the database is
		// what actually makes replays safe, so a broken guard never blocks
		// processing.
		marked := false
		if guard != nil && dataID != "" {
			alreadyProcessed, err := guard.CheckAndMark(ctx, dataID)
			if err != nil {
				warn(ctx, logg, "payment webhook idempotency check failed, processing anyway")
			} else if alreadyProcessed {
				responses.WriteSuccess(w, nil)
				return
			} else {
				marked = true
			}
		}

		if err := svc.HandleNotification(ctx, notification); err != nil {
			if marked {
				_ = guard.Delete(ctx, dataID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

func warn(ctx context.Context, logg *logger.Logger, msg string) {
	if logg != nil {
		logg.Warn(ctx, msg)
	}
}
