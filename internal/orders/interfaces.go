package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tienda-mx/storefront-backend/pkg/db/models"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderItemRows(ctx context.Context, orderID uuid.UUID) ([]OrderItemRow, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAllOrders(ctx context.Context) ([]models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID) (bool, error)
}
