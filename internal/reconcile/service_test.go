package reconcile

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yutosugimura/saltbreeze-backend/internal/catalog"
	"github.com/yutosugimura/saltbreeze-backend/internal/fulfillment"
	"github.com/yutosugimura/saltbreeze-backend/internal/inventory"
	"github.com/yutosugimura/saltbreeze-backend/internal/notifications"
	"github.com/yutosugimura/saltbreeze-backend/internal/orders"
	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/types"
)

func setupReconcileTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price_yen INTEGER NOT NULL,
  image_url TEXT,
  sizes TEXT NOT NULL DEFAULT '[]',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  postal_code TEXT NOT NULL,
  region TEXT NOT NULL,
  locality TEXT NOT NULL,
  address_line1 TEXT NOT NULL,
  address_line2 TEXT,
  subtotal_yen INTEGER NOT NULL,
  shipping_fee_yen INTEGER NOT NULL DEFAULT 0,
  total_yen INTEGER NOT NULL,
  payment_method TEXT NOT NULL,
  gateway_payment_ref TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  shipped_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_yen INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  size TEXT NOT NULL,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS fulfillment_units (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  size TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'preparing',
  shipped_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	for _, table := range []string{"fulfillment_units", "order_items", "orders", "products"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event notifications.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

type reconcileFixture struct {
	db         *gorm.DB
	svc        Service
	dispatcher *recordingDispatcher
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()

	db := setupReconcileTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	dispatcher := &recordingDispatcher{}

	catalogRepo := catalog.NewRepository(db)
	inventorySvc, err := inventory.NewService(catalogRepo, logg)
	require.NoError(t, err)
	fulfillmentSvc, err := fulfillment.NewService(fulfillment.NewRepository(db), dispatcher, logg)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		OrdersRepo:  orders.NewRepository(db),
		Inventory:   inventorySvc,
		Fulfillment: fulfillmentSvc,
		Dispatcher:  dispatcher,
		Logger:      logg,
	})
	require.NoError(t, err)

	return &reconcileFixture{db: db, svc: svc, dispatcher: dispatcher}
}

// seedPendingGatewayOrder creates the state a gateway checkout leaves behind:
// a pending order with item snapshots and live stock, awaiting the payment
// notification.
func seedPendingGatewayOrder(t *testing.T, db *gorm.DB) (*models.Order, *models.Product) {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		Name:     "リネンシャツ",
		PriceYen: 6500,
		Sizes:    types.SizeStocks{{Size: "M", Stock: 5}},
	}
	require.NoError(t, db.Create(product).Error)

	order := &models.Order{
		ID:             uuid.New(),
		CustomerName:   "山田花子",
		Email:          "hanako@example.com",
		PostalCode:     "150-0001",
		Region:         "東京都",
		Locality:       "渋谷区",
		AddressLine1:   "神宮前1-2-3",
		SubtotalYen:    13000,
		ShippingFeeYen: 500,
		TotalYen:       13500,
		PaymentMethod:  enums.PaymentMethodGatewayCard,
		Status:         enums.OrderStatusPending,
		Items: []models.OrderItem{
			{
				ID:           uuid.New(),
				ProductID:    product.ID,
				Name:         product.Name,
				UnitPriceYen: product.PriceYen,
				Qty:          2,
				Size:         "M",
			},
		},
	}
	require.NoError(t, db.Create(order).Error)
	return order, product
}

func TestReconcile_firstDeliveryApplies(t *testing.T) {
	fx := newReconcileFixture(t)
	order, product := seedPendingGatewayOrder(t, fx.db)

	result, err := fx.svc.Reconcile(context.Background(), order.ID, "pay_abc123")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, enums.OrderStatusProcessing, result.Order.Status)

	var saved models.Order
	require.NoError(t, fx.db.First(&saved, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusProcessing, saved.Status)
	require.NotNil(t, saved.GatewayPaymentRef)
	assert.Equal(t, "pay_abc123", *saved.GatewayPaymentRef)

	var savedProduct models.Product
	require.NoError(t, fx.db.First(&savedProduct, "id = ?", product.ID).Error)
	assert.Equal(t, 3, savedProduct.Sizes.StockFor("M"))

	var units []models.FulfillmentUnit
	require.NoError(t, fx.db.Where("order_id = ?", order.ID).Find(&units).Error)
	assert.Len(t, units, 2)

	assert.Equal(t, 2, fx.dispatcher.count())
}

func TestReconcile_replaySameReferenceIsNoOp(t *testing.T) {
	fx := newReconcileFixture(t)
	order, product := seedPendingGatewayOrder(t, fx.db)

	first, err := fx.svc.Reconcile(context.Background(), order.ID, "pay_abc123")
	require.NoError(t, err)
	require.True(t, first.Applied)

	second, err := fx.svc.Reconcile(context.Background(), order.ID, "pay_abc123")
	require.NoError(t, err)
	assert.False(t, second.Applied)

	// No second decrement, no extra units, no extra mail.
	var savedProduct models.Product
	require.NoError(t, fx.db.First(&savedProduct, "id = ?", product.ID).Error)
	assert.Equal(t, 3, savedProduct.Sizes.StockFor("M"))

	var units []models.FulfillmentUnit
	require.NoError(t, fx.db.Where("order_id = ?", order.ID).Find(&units).Error)
	assert.Len(t, units, 2)

	assert.Equal(t, 2, fx.dispatcher.count())
}

func TestReconcile_distinctReferenceAfterConfirmationIsDropped(t *testing.T) {
	fx := newReconcileFixture(t)
	order, _ := seedPendingGatewayOrder(t, fx.db)

	first, err := fx.svc.Reconcile(context.Background(), order.ID, "pay_abc123")
	require.NoError(t, err)
	require.True(t, first.Applied)

	second, err := fx.svc.Reconcile(context.Background(), order.ID, "pay_other999")
	require.NoError(t, err)
	assert.False(t, second.Applied)

	var saved models.Order
	require.NoError(t, fx.db.First(&saved, "id = ?", order.ID).Error)
	require.NotNil(t, saved.GatewayPaymentRef)
	assert.Equal(t, "pay_abc123", *saved.GatewayPaymentRef)
}

func TestReconcile_distinctReferenceWhilePendingConflicts(t *testing.T) {
	fx := newReconcileFixture(t)
	order, _ := seedPendingGatewayOrder(t, fx.db)

	// A racing delivery claimed the reference but its status write has not
	// landed yet.
	require.NoError(t, fx.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("gateway_payment_ref", "pay_winner").Error)

	_, err := fx.svc.Reconcile(context.Background(), order.ID, "pay_loser")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestReconcile_cancelledOrderRejectsConfirmation(t *testing.T) {
	fx := newReconcileFixture(t)
	order, product := seedPendingGatewayOrder(t, fx.db)

	require.NoError(t, fx.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", enums.OrderStatusCancelled).Error)

	_, err := fx.svc.Reconcile(context.Background(), order.ID, "pay_abc123")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// Nothing was applied.
	var savedProduct models.Product
	require.NoError(t, fx.db.First(&savedProduct, "id = ?", product.ID).Error)
	assert.Equal(t, 5, savedProduct.Sizes.StockFor("M"))
	assert.Zero(t, fx.dispatcher.count())
}

func TestReconcile_orderNotFound(t *testing.T) {
	fx := newReconcileFixture(t)

	_, err := fx.svc.Reconcile(context.Background(), uuid.New(), "pay_abc123")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestReconcile_inputValidation(t *testing.T) {
	fx := newReconcileFixture(t)

	_, err := fx.svc.Reconcile(context.Background(), uuid.Nil, "pay_abc123")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = fx.svc.Reconcile(context.Background(), uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
