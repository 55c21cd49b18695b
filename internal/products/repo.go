package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tienda-mx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
)

// Repository exposes the catalog reads and the stock decrement the order
// pipeline needs. Catalog CRUD lives elsewhere.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProductByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProductByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock subtracts qty from the product's stock in a single UPDATE,
// clamping at zero so an oversold item cannot push the column negative.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET count_in_stock = CASE WHEN count_in_stock >= ? THEN count_in_stock - ? ELSE 0 END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	return nil
}
