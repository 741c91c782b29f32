package enums

import "fmt"

// OrderStatus is the closed set of storefront order states. The values are the
// Spanish labels the storefront has always persisted; treat them as opaque
// identifiers, not display strings.
type OrderStatus string

const (
	OrderStatusPendiente  OrderStatus = "Pendiente"
	OrderStatusProcesando OrderStatus = "Procesando"
	OrderStatusPagado     OrderStatus = "Pagado"
	OrderStatusEnviado    OrderStatus = "Enviado"
	OrderStatusCompletado OrderStatus = "Completado"
	OrderStatusCancelado  OrderStatus = "Cancelado"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendiente,
	OrderStatusProcesando,
	OrderStatusPagado,
	OrderStatusEnviado,
	OrderStatusCompletado,
	OrderStatusCancelado,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition leaves this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelado
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
