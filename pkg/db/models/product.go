package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yutosugimura/saltbreeze-backend/pkg/types"
)

// Product is the catalog entity consumed read-only at checkout time. Sizes is
// the product's inventory record; it is only rewritten through the inventory
// ledger's adjust operation.
type Product struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string           `gorm:"column:name;not null"`
	PriceYen  int              `gorm:"column:price_yen;not null"`
	ImageURL  string           `gorm:"column:image_url"`
	Sizes     types.SizeStocks `gorm:"column:sizes;type:jsonb;serializer:json"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
