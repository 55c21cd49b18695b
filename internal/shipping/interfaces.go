package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tienda-mx/storefront-backend/pkg/db/models"
)

// Repository defines persistence operations for shipping records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateShipping(ctx context.Context, record *models.Shipping) (*models.Shipping, error)
	FindByID(ctx context.Context, shippingID uuid.UUID) (*models.Shipping, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Shipping, error)
	UpdateShipping(ctx context.Context, shippingID uuid.UUID, updates map[string]any) error
}
