package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tienda-mx/storefront-backend/pkg/db"
	"github.com/tienda-mx/storefront-backend/pkg/db/models"
	"github.com/tienda-mx/storefront-backend/pkg/enums"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
	GetUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	GetAllOrders(ctx context.Context) ([]models.Order, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, line := range input.Items {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if line.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}
	if input.Total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative")
	}

	order := &models.Order{
		ID:           uuid.New(),
		UserID:       input.UserID,
		GuestName:    input.GuestName,
		GuestEmail:   input.GuestEmail,
		GuestAddress: input.GuestAddress,
		Total:        input.Total,
		Status:       enums.OrderStatusPending,
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	// Order row and item rows commit together or not at all; a failed item
	// insert must leave no trace of the order.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Items = items
	return order, nil
}

func (s *service) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	items, err := s.repo.FindOrderItemRows(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}

	return &OrderDetail{
		ID:           order.ID,
		UserID:       order.UserID,
		GuestName:    order.GuestName,
		GuestEmail:   order.GuestEmail,
		GuestAddress: order.GuestAddress,
		Total:        order.Total,
		Status:       order.Status,
		CreatedAt:    order.CreatedAt,
		Items:        items,
	}, nil
}

func (s *service) GetUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListUserOrders(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user orders")
	}
	return list, nil
}

func (s *service) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	list, err := s.repo.ListAllOrders(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}
