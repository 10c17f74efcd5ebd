package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
)

// FulfillmentUnit is one physically shippable unit of an order, created when
// payment is confirmed. Its status moves independently of the parent order so
// a multi-item order can ship in parts.
type FulfillmentUnit struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID               `gorm:"column:order_id;type:uuid;not null"`
	ProductID    uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	ProductName  string                  `gorm:"column:product_name;not null"`
	CustomerName string                  `gorm:"column:customer_name;not null"`
	Size         string                  `gorm:"column:size;not null"`
	Status       enums.FulfillmentStatus `gorm:"column:status;type:text;not null;default:'preparing'"`
	ShippedAt    *time.Time              `gorm:"column:shipped_at"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
