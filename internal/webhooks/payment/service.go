package paymentwebhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tienda-mx/storefront-backend/internal/orders"
	"github.com/tienda-mx/storefront-backend/internal/products"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/logger"
	"github.com/tienda-mx/storefront-backend/pkg/mercadopago"
	"github.com/tienda-mx/storefront-backend/pkg/metrics"
)

const notificationTypePayment = "payment"

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	OrdersRepo        orders.Repository
	ProductsRepo      products.Repository
	Provider          paymentFetcher
	TransactionRunner txRunner
	Logger            *logger.Logger
	Metrics           *metrics.WebhookMetrics
}

// Service reconciles payment notifications against the order store. It never
// trusts the webhook body's status: the decision to mark an order paid is
// made on the provider's authoritative payment resource.
type Service struct {
	ordersRepo   orders.Repository
	productsRepo products.Repository
	provider     paymentFetcher
	txRunner     txRunner
	logger       *logger.Logger
	metrics      *metrics.WebhookMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.ProductsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "products repo required")
	}
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment provider client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		ordersRepo:   params.OrdersRepo,
		productsRepo: params.ProductsRepo,
		provider:     params.Provider,
		txRunner:     params.TransactionRunner,
		logger:       params.Logger,
		metrics:      params.Metrics,
	}, nil
}

// HandleNotification processes one verified notification. Every outcome other
// than a failed provider lookup resolves to nil so the HTTP layer can
// acknowledge the delivery; only the provider fetch is worth a retry.
func (s *Service) HandleNotification(ctx context.Context, n *Notification) error {
	if n == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification required")
	}

	if strings.ToLower(strings.TrimSpace(n.Type)) != notificationTypePayment {
		s.metrics.IncDelivery(metrics.OutcomeIgnored)
		return nil
	}

	dataID := n.DataID()
	if dataID == "" {
		s.metrics.IncDelivery(metrics.OutcomeIgnored)
		return nil
	}

	start := time.Now()
	payment, err := s.provider.GetPayment(ctx, dataID)
	if err != nil {
		s.metrics.ObserveProviderFetch("error", time.Since(start))
		s.metrics.IncDelivery(metrics.OutcomeUpstreamFailed)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment")
	}
	s.metrics.ObserveProviderFetch(payment.Status, time.Since(start))

	if payment.Status != mercadopago.PaymentStatusApproved {
		s.metrics.IncDelivery(metrics.OutcomeIgnored)
		return nil
	}

	orderID, err := uuid.Parse(strings.TrimSpace(payment.ExternalReference))
	if err != nil {
		// malformed or foreign notification: log and stop, no side effects
		s.warn(ctx, fmt.Sprintf("payment %s carries no usable external reference", dataID))
		s.metrics.IncDelivery(metrics.OutcomeIgnored)
		return nil
	}

	ctx = s.withOrderID(ctx, orderID)

	outcome, err := s.applyPaidTransition(ctx, orderID)
	if err != nil {
		return err
	}
	if outcome == metrics.OutcomeApplied {
		s.info(ctx, "order marked paid, stock decremented")
	}
	s.metrics.IncDelivery(outcome)
	return nil
}

// applyPaidTransition flips the order to paid and decrements stock for every
// item inside one transaction. The guarded UPDATE decides whether this
// delivery wins; losers roll back having written nothing.
func (s *Service) applyPaidTransition(ctx context.Context, orderID uuid.UUID) (string, error) {
	outcome := metrics.OutcomeReplayed

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		productsRepo := s.productsRepo.WithTx(tx)

		order, err := ordersRepo.FindOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.warn(ctx, "notification references unknown order")
				outcome = metrics.OutcomeIgnored
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		won, err := ordersRepo.MarkOrderPaid(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if !won {
			return nil
		}

		var decrementErr error
		for _, item := range order.Items {
			decrementErr = multierr.Append(decrementErr,
				productsRepo.DecrementStock(ctx, item.ProductID, item.Quantity))
		}
		if decrementErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, decrementErr, "decrement stock")
		}

		outcome = metrics.OutcomeApplied
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (s *Service) withOrderID(ctx context.Context, orderID uuid.UUID) context.Context {
	if s.logger == nil {
		return ctx
	}
	return s.logger.WithOrderID(ctx, orderID.String())
}

func (s *Service) info(ctx context.Context, msg string) {
	if s.logger != nil {
		s.logger.Info(ctx, msg)
	}
}

func (s *Service) warn(ctx context.Context, msg string) {
	if s.logger != nil {
		s.logger.Warn(ctx, msg)
	}
}
