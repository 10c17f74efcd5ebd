package inventory

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yutosugimura/saltbreeze-backend/internal/catalog"
	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/types"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price_yen INTEGER NOT NULL,
  image_url TEXT,
  sizes TEXT NOT NULL DEFAULT '[]',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec("DELETE FROM products").Error)
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newProduct(t *testing.T, db *gorm.DB, sizes types.SizeStocks) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		Name:     "リネンシャツ",
		PriceYen: 6500,
		Sizes:    sizes,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func newInventoryService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(catalog.NewRepository(db), testLogger(t))
	require.NoError(t, err)
	return svc
}

func TestAdjust_decrementsStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	product := newProduct(t, db, types.SizeStocks{{Size: "M", Stock: 5}, {Size: "L", Stock: 2}})

	stock, err := svc.Adjust(context.Background(), product.ID, "M", -3)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)

	var saved models.Product
	require.NoError(t, db.First(&saved, "id = ?", product.ID).Error)
	assert.Equal(t, 2, saved.Sizes.StockFor("M"))
	assert.Equal(t, 2, saved.Sizes.StockFor("L"))
}

func TestAdjust_clampsAtZero(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	product := newProduct(t, db, types.SizeStocks{{Size: "S", Stock: 1}})

	stock, err := svc.Adjust(context.Background(), product.ID, "S", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	var saved models.Product
	require.NoError(t, db.First(&saved, "id = ?", product.ID).Error)
	assert.Equal(t, 0, saved.Sizes.StockFor("S"))
}

func TestAdjust_createsMissingSizeEntry(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	product := newProduct(t, db, types.SizeStocks{{Size: "M", Stock: 3}})

	stock, err := svc.Adjust(context.Background(), product.ID, "XL", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, stock)

	var saved models.Product
	require.NoError(t, db.First(&saved, "id = ?", product.ID).Error)
	assert.Equal(t, 4, saved.Sizes.StockFor("XL"))
	assert.Equal(t, 3, saved.Sizes.StockFor("M"))
}

func TestAdjust_missingSizeDecrementClampsToZero(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	product := newProduct(t, db, types.SizeStocks{})

	stock, err := svc.Adjust(context.Background(), product.ID, "M", -1)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}

func TestAdjust_productNotFound(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)

	_, err := svc.Adjust(context.Background(), uuid.New(), "M", 1)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAdjust_restock(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db)
	product := newProduct(t, db, types.SizeStocks{{Size: "M", Stock: 1}})

	stock, err := svc.Adjust(context.Background(), product.ID, "M", 9)
	require.NoError(t, err)
	assert.Equal(t, 10, stock)
}
