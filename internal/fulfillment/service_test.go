package fulfillment

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

	"github.com/yutosugimura/saltbreeze-backend/internal/notifications"
	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/pagination"
)

func setupFulfillmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	units := `
CREATE TABLE IF NOT EXISTS fulfillment_units (
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
);`
	require.NoError(t, db.Exec(units).Error)
	require.NoError(t, db.Exec("DELETE FROM fulfillment_units").Error)
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

func newFulfillmentService(t *testing.T, db *gorm.DB, dispatcher notifications.Dispatcher) Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), dispatcher, logg)
	require.NoError(t, err)
	return svc
}

func paidOrder(qtys ...int) *models.Order {
	order := &models.Order{
		ID:           uuid.New(),
		CustomerName: "山田花子",
	}
	for _, qty := range qtys {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: uuid.New(),
			Name:      "リネンシャツ",
			Qty:       qty,
			Size:      "M",
		})
	}
	return order
}

func TestCreateUnits_expandsQuantity(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	svc := newFulfillmentService(t, db, notifications.NoopDispatcher{})
	order := paidOrder(3, 1)

	units, err := svc.CreateUnits(context.Background(), order)
	require.NoError(t, err)
	assert.Len(t, units, 4)

	var saved []models.FulfillmentUnit
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&saved).Error)
	require.Len(t, saved, 4)
	for _, unit := range saved {
		assert.Equal(t, enums.FulfillmentStatusPreparing, unit.Status)
		assert.Equal(t, "山田花子", unit.CustomerName)
		assert.Nil(t, unit.ShippedAt)
	}
}

func TestCreateUnits_nilOrder(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	svc := newFulfillmentService(t, db, notifications.NoopDispatcher{})

	_, err := svc.CreateUnits(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestMarkShipped_stampsAndNotifies(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	dispatcher := &recordingDispatcher{}
	svc := newFulfillmentService(t, db, dispatcher)

	units, err := svc.CreateUnits(context.Background(), paidOrder(1))
	require.NoError(t, err)
	require.Len(t, units, 1)

	shipped, err := svc.MarkShipped(context.Background(), units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, enums.FulfillmentStatusShipped, shipped.Status)
	require.NotNil(t, shipped.ShippedAt)
	assert.Equal(t, 1, dispatcher.count())
}

func TestMarkShipped_secondCallIsNoOp(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	dispatcher := &recordingDispatcher{}
	svc := newFulfillmentService(t, db, dispatcher)

	units, err := svc.CreateUnits(context.Background(), paidOrder(1))
	require.NoError(t, err)

	first, err := svc.MarkShipped(context.Background(), units[0].ID)
	require.NoError(t, err)
	require.NotNil(t, first.ShippedAt)

	second, err := svc.MarkShipped(context.Background(), units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, enums.FulfillmentStatusShipped, second.Status)
	require.NotNil(t, second.ShippedAt)
	assert.Equal(t, first.ShippedAt.Unix(), second.ShippedAt.Unix())

	// The double-click does not re-send the shipping notice.
	assert.Equal(t, 1, dispatcher.count())
}

func TestMarkShipped_unknownUnit(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	svc := newFulfillmentService(t, db, notifications.NoopDispatcher{})

	_, err := svc.MarkShipped(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListByOrder_returnsOnlyThatOrder(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	svc := newFulfillmentService(t, db, notifications.NoopDispatcher{})

	orderA := paidOrder(2)
	orderB := paidOrder(1)
	_, err := svc.CreateUnits(context.Background(), orderA)
	require.NoError(t, err)
	_, err = svc.CreateUnits(context.Background(), orderB)
	require.NoError(t, err)

	units, err := svc.ListByOrder(context.Background(), orderA.ID)
	require.NoError(t, err)
	assert.Len(t, units, 2)
	for _, unit := range units {
		assert.Equal(t, orderA.ID, unit.OrderID)
	}
}

func TestList_filtersByStatus(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	svc := newFulfillmentService(t, db, notifications.NoopDispatcher{})

	units, err := svc.CreateUnits(context.Background(), paidOrder(3))
	require.NoError(t, err)
	_, err = svc.MarkShipped(context.Background(), units[0].ID)
	require.NoError(t, err)

	preparing := enums.FulfillmentStatusPreparing
	result, err := svc.List(context.Background(), ListInput{
		Status: &preparing,
		Page:   pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	assert.Len(t, result.Units, 2)
	assert.Empty(t, result.NextCursor)
}
