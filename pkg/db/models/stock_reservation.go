package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmcastellanos/tienda-backend/pkg/enums"
)

// StockReservation is a time-bounded hold on product stock for an anonymous
// checkout identity. Rows never leave a terminal status once they reach one.
type StockReservation struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity  int                     `gorm:"column:quantity;not null"`
	SessionID *string                 `gorm:"column:session_id;index"`
	CookieID  *string                 `gorm:"column:cookie_id;index"`
	Status    enums.ReservationStatus `gorm:"column:status;not null;default:active;index:idx_reservations_status_expires"`
	ExpiresAt time.Time               `gorm:"column:expires_at;not null;index:idx_reservations_status_expires"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
