package enums

// OutboxEventType enumerates the domain events written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated        OutboxEventType = "order.created"
	EventOrderStatusChanged  OutboxEventType = "order.status_changed"
	EventOrderPaid           OutboxEventType = "order.paid"
	EventOrderCanceled       OutboxEventType = "order.canceled"
	EventReservationsExpired OutboxEventType = "reservations.expired"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateProduct     OutboxAggregateType = "product"
	AggregateReservation OutboxAggregateType = "stock_reservation"
)
