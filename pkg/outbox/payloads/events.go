// Package payloads defines the data shapes embedded in outbox envelopes.
package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine mirrors an order item inside event payloads.
type OrderLine struct {
	ProductID      uuid.UUID `json:"productId"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unitPriceCents"`
}

// OrderCreated is emitted when a new order row commits.
type OrderCreated struct {
	OrderID       uuid.UUID   `json:"orderId"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"paymentMethod"`
	TotalCents    int         `json:"totalCents"`
	Lines         []OrderLine `json:"lines"`
}

// OrderStatusChanged is emitted on every accepted status transition.
type OrderStatusChanged struct {
	OrderID    uuid.UUID `json:"orderId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
}

// OrderCanceled is emitted when an order reaches Cancelado.
type OrderCanceled struct {
	OrderID        uuid.UUID `json:"orderId"`
	PreviousStatus string    `json:"previousStatus"`
	StockRestored  bool      `json:"stockRestored"`
}

// ReservationExpired is emitted when the sweeper releases a stale hold.
type ReservationExpired struct {
	ReservationID uuid.UUID `json:"reservationId"`
	ProductID     uuid.UUID `json:"productId"`
	Quantity      int       `json:"quantity"`
	ExpiredAt     time.Time `json:"expiredAt"`
}
