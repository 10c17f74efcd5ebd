package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yutosugimura/saltbreeze-backend/pkg/db/models"
	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
	"github.com/yutosugimura/saltbreeze-backend/pkg/pagination"
)

// Repository persists the per-unit fulfillment queue.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateUnits(ctx context.Context, units []models.FulfillmentUnit) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.FulfillmentUnit, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.FulfillmentUnit, error)
	List(ctx context.Context, filter ListFilter) ([]models.FulfillmentUnit, error)
	MarkShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time) error
}

// ListFilter narrows and paginates the staff fulfillment listing.
type ListFilter struct {
	Status *enums.FulfillmentStatus
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fulfillment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateUnits(ctx context.Context, units []models.FulfillmentUnit) error {
	if len(units) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&units).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.FulfillmentUnit, error) {
	var unit models.FulfillmentUnit
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.FulfillmentUnit, error) {
	var units []models.FulfillmentUnit
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.FulfillmentUnit, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var units []models.FulfillmentUnit
	if err := query.Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) MarkShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.FulfillmentUnit{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.FulfillmentStatusShipped,
			"shipped_at": shippedAt,
		}).Error
}
