package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
)

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID            uuid.UUID      `json:"id"`
	Status        string         `json:"status"`
	PaymentMethod string         `json:"paymentMethod"`
	TotalCents    int            `json:"totalCents"`
	Items         []OrderItemDTO `json:"items"`
	CanceledAt    *time.Time     `json:"canceledAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// OrderItemDTO is one snapshot line of an order.
type OrderItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"productId"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unitPriceCents"`
	Quantity       int       `json:"quantity"`
}

// NewOrderDTO builds a DTO from the persisted model.
func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		}
	}
	return &OrderDTO{
		ID:            order.ID,
		Status:        order.Status.String(),
		PaymentMethod: order.PaymentMethod.String(),
		TotalCents:    order.TotalCents,
		Items:         items,
		CanceledAt:    order.CanceledAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

// NewOrderDTOs maps a page of orders.
func NewOrderDTOs(orders []models.Order) []OrderDTO {
	dtos := make([]OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = *NewOrderDTO(&orders[i])
	}
	return dtos
}
