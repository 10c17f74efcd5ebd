package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem captures the checkout-time snapshot of one ordered line. Name,
// price and image are frozen here and never re-synced to the catalog.
type OrderItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name         string    `gorm:"column:name;not null"`
	UnitPriceYen int       `gorm:"column:unit_price_yen;not null"`
	Qty          int       `gorm:"column:qty;not null"`
	Size         string    `gorm:"column:size;not null"`
	ImageURL     string    `gorm:"column:image_url"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
