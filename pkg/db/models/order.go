package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yutosugimura/saltbreeze-backend/pkg/enums"
)

// Order is the single source of truth for a committed purchase. Item
// snapshots are embedded so catalog edits never change what the customer
// agreed to pay. GatewayPaymentRef is write-once; a second distinct reference
// for the same order is rejected at the repository.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerName   string              `gorm:"column:customer_name;not null"`
	Email          string              `gorm:"column:email;not null"`
	Phone          string              `gorm:"column:phone"`
	PostalCode     string              `gorm:"column:postal_code;not null"`
	Region         string              `gorm:"column:region;not null"`
	Locality       string              `gorm:"column:locality;not null"`
	AddressLine1   string              `gorm:"column:address_line1;not null"`
	AddressLine2   *string             `gorm:"column:address_line2"`
	SubtotalYen    int                 `gorm:"column:subtotal_yen;not null"`
	ShippingFeeYen int                 `gorm:"column:shipping_fee_yen;not null;default:0"`
	TotalYen       int                 `gorm:"column:total_yen;not null"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`

	// GatewayPaymentRef holds the gateway-issued payment reference once a
	// gateway notification has been applied. Nil until then.
	GatewayPaymentRef *string `gorm:"column:gateway_payment_ref"`

	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Items     []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippedAt *time.Time        `gorm:"column:shipped_at"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
