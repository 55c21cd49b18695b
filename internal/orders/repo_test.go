package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tienda-mx/storefront-backend/pkg/db/models"
	"github.com/tienda-mx/storefront-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image_url TEXT,
  price NUMERIC NOT NULL,
  count_in_stock INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  guest_name TEXT,
  guest_email TEXT,
  guest_address TEXT,
  total NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:           uuid.New(),
		Name:         name,
		Price:        decimal.NewFromFloat(9.99),
		CountInStock: stock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryCreateAndFindOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "Ceramic Mug", 50)

	order := &models.Order{
		ID:     uuid.New(),
		Total:  decimal.NewFromFloat(19.98),
		Status: enums.OrderStatusPending,
	}
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	items := []models.OrderItem{{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: product.ID,
		Quantity:  2,
		Price:     decimal.NewFromFloat(9.99),
	}}
	require.NoError(t, repo.CreateOrderItems(ctx, items))

	found, err := repo.FindOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)

	rows, err := repo.FindOrderItemRows(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ceramic Mug", rows[0].ProductName)
	assert.Equal(t, product.ID, rows[0].ProductID)
}

func TestRepositoryCreateRollsBackWithOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	ctx := context.Background()

	product := seedProduct(t, db, "Poster", 10)

	orderID := uuid.New()
	dupID := uuid.New()

	tx := db.Begin()
	require.NoError(t, tx.Error)
	repo := NewRepository(db).WithTx(tx)

	_, err := repo.CreateOrder(ctx, &models.Order{
		ID:     orderID,
		Total:  decimal.NewFromFloat(9.99),
		Status: enums.OrderStatusPending,
	})
	require.NoError(t, err)

	// duplicate primary key forces the item insert to fail mid-transaction
	err = repo.CreateOrderItems(ctx, []models.OrderItem{
		{ID: dupID, OrderID: orderID, ProductID: product.ID, Quantity: 1, Price: decimal.NewFromFloat(9.99)},
		{ID: dupID, OrderID: orderID, ProductID: product.ID, Quantity: 1, Price: decimal.NewFromFloat(9.99)},
	})
	require.Error(t, err)
	require.NoError(t, tx.Rollback().Error)

	_, err = NewRepository(db).FindOrderByID(ctx, orderID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListOrders(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	for i := 0; i < 3; i++ {
		owner := &userID
		if i == 2 {
			owner = nil // guest order must not show up in the user listing
		}
		_, err := repo.CreateOrder(ctx, &models.Order{
			ID:     uuid.New(),
			UserID: owner,
			Total:  decimal.NewFromInt(int64(i + 1)),
			Status: enums.OrderStatusPending,
		})
		require.NoError(t, err)
	}

	mine, err := repo.ListUserOrders(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := repo.ListAllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepositoryMarkOrderPaidIsGuarded(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := &models.Order{
		ID:     uuid.New(),
		Total:  decimal.NewFromFloat(19.98),
		Status: enums.OrderStatusPending,
	}
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	applied, err := repo.MarkOrderPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, applied)

	// replay: guard matches zero rows
	applied, err = repo.MarkOrderPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, applied)

	found, err := repo.FindOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, found.Status)
}

func TestRepositoryMarkOrderPaidUnknownOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	applied, err := repo.MarkOrderPaid(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, applied)
}
