package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	"github.com/yutosugimura/saltbreeze-backend/pkg/types"
)

// Repository exposes the catalog reads and the single inventory write used by
// the rest of the engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateSizes(ctx context.Context, id uuid.UUID, sizes types.SizeStocks) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) UpdateSizes(ctx context.Context, id uuid.UUID, sizes types.SizeStocks) error {
	// A typed update runs sizes through the model's JSON serializer; a raw
	// column-value Update hands the struct slice straight to the driver.
	// Select forces the write even when sizes is empty.
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Select("sizes").
		Updates(&models.Product{Sizes: sizes}).Error
}
