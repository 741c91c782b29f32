package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmcastellanos/tienda-backend/pkg/enums"
)

// Order is a storefront order. Items are a denormalized snapshot taken at
// order time; later product edits never reach past orders.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;index"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	TotalCents    int                 `gorm:"column:total_cents;not null"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CanceledAt    *time.Time          `gorm:"column:canceled_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
