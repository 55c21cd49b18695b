package paymentwebhook

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tienda-mx/storefront-backend/internal/orders"
	"github.com/tienda-mx/storefront-backend/internal/products"
	"github.com/tienda-mx/storefront-backend/pkg/db/models"
	"github.com/tienda-mx/storefront-backend/pkg/enums"
	pkgerrors "github.com/tienda-mx/storefront-backend/pkg/errors"
	"github.com/tienda-mx/storefront-backend/pkg/mercadopago"
)

type stubPaymentProvider struct {
	payments map[string]*mercadopago.Payment
	err      error
	calls    int
}

func (s *stubPaymentProvider) GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return payment, nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	stmts := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image_url TEXT,
  price NUMERIC NOT NULL,
  count_in_stock INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
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
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  created_at DATETIME
);`}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type reconcilerFixture struct {
	db       *gorm.DB
	svc      *Service
	provider *stubPaymentProvider
	order    *models.Order
	product  *models.Product
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()

	db := setupWebhookTestDB(t)

	product := &models.Product{
		ID:           uuid.New(),
		Name:         "Ceramic Mug",
		Price:        decimal.NewFromFloat(9.99),
		CountInStock: 50,
	}
	require.NoError(t, db.Create(product).Error)

	order := &models.Order{
		ID:     uuid.New(),
		Total:  decimal.NewFromFloat(19.98),
		Status: enums.OrderStatusPending,
	}
	require.NoError(t, db.Omit("Items").Create(order).Error)
	require.NoError(t, db.Create(&models.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: product.ID,
		Quantity:  2,
		Price:     decimal.NewFromFloat(9.99),
	}).Error)

	provider := &stubPaymentProvider{payments: map[string]*mercadopago.Payment{
		"111": {ID: 111, Status: mercadopago.PaymentStatusApproved, ExternalReference: order.ID.String()},
	}}

	svc, err := NewService(ServiceParams{
		OrdersRepo:        orders.NewRepository(db),
		ProductsRepo:      products.NewRepository(db),
		Provider:          provider,
		TransactionRunner: gormTxRunner{db: db},
	})
	require.NoError(t, err)

	return &reconcilerFixture{db: db, svc: svc, provider: provider, order: order, product: product}
}

func (f *reconcilerFixture) orderStatus(t *testing.T) enums.OrderStatus {
	t.Helper()
	var order models.Order
	require.NoError(t, f.db.Where("id = ?", f.order.ID).First(&order).Error)
	return order.Status
}

func (f *reconcilerFixture) stock(t *testing.T) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.Where("id = ?", f.product.ID).First(&product).Error)
	return product.CountInStock
}

func paymentNotification(id string) *Notification {
	n := &Notification{Type: "payment"}
	n.Data.ID = id
	return n
}

func TestHandleNotificationMarksPaidAndDecrementsStock(t *testing.T) {
	f := newReconcilerFixture(t)

	err := f.svc.HandleNotification(context.Background(), paymentNotification("111"))
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPaid, f.orderStatus(t))
	assert.Equal(t, 48, f.stock(t))
}

func TestHandleNotificationReplayIsNoOp(t *testing.T) {
	f := newReconcilerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.HandleNotification(ctx, paymentNotification("111")))
	require.NoError(t, f.svc.HandleNotification(ctx, paymentNotification("111")))

	assert.Equal(t, enums.OrderStatusPaid, f.orderStatus(t))
	// decremented once, not twice
	assert.Equal(t, 48, f.stock(t))
}

func TestHandleNotificationIgnoresNonPaymentTypes(t *testing.T) {
	f := newReconcilerFixture(t)

	n := &Notification{Type: "merchant_order"}
	n.Data.ID = "111"
	require.NoError(t, f.svc.HandleNotification(context.Background(), n))

	assert.Zero(t, f.provider.calls)
	assert.Equal(t, enums.OrderStatusPending, f.orderStatus(t))
	assert.Equal(t, 50, f.stock(t))
}

func TestHandleNotificationIgnoresUnapprovedPayment(t *testing.T) {
	f := newReconcilerFixture(t)
	f.provider.payments["111"].Status = "in_process"

	require.NoError(t, f.svc.HandleNotification(context.Background(), paymentNotification("111")))

	assert.Equal(t, enums.OrderStatusPending, f.orderStatus(t))
	assert.Equal(t, 50, f.stock(t))
}

func TestHandleNotificationUnknownOrderIsSafe(t *testing.T) {
	f := newReconcilerFixture(t)
	f.provider.payments["111"].ExternalReference = uuid.New().String()

	require.NoError(t, f.svc.HandleNotification(context.Background(), paymentNotification("111")))

	assert.Equal(t, enums.OrderStatusPending, f.orderStatus(t))
	assert.Equal(t, 50, f.stock(t))
}

func TestHandleNotificationMalformedReferenceIsSafe(t *testing.T) {
	f := newReconcilerFixture(t)
	f.provider.payments["111"].ExternalReference = "not-a-uuid"

	require.NoError(t, f.svc.HandleNotification(context.Background(), paymentNotification("111")))

	assert.Equal(t, enums.OrderStatusPending, f.orderStatus(t))
}

func TestHandleNotificationSurfacesProviderFailure(t *testing.T) {
	f := newReconcilerFixture(t)
	f.provider.err = fmt.Errorf("connection reset")

	err := f.svc.HandleNotification(context.Background(), paymentNotification("111"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, enums.OrderStatusPending, f.orderStatus(t))
}

func TestHandleNotificationResolvesIDFromResource(t *testing.T) {
	f := newReconcilerFixture(t)

	n := &Notification{Type: "payment", Resource: "https://api.example.com/v1/payments/111"}
	require.NoError(t, f.svc.HandleNotification(context.Background(), n))

	assert.Equal(t, enums.OrderStatusPaid, f.orderStatus(t))
}
