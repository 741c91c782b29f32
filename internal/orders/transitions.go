package orders

import (
	"github.com/jmcastellanos/tienda-backend/pkg/enums"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
)

// allowedTransitions is the closed order state machine. Cancelado is a sink:
// once an order is canceled, no transition leaves it, and canceling again is
// rejected rather than silently accepted.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPendiente: {
		enums.OrderStatusProcesando,
		enums.OrderStatusPagado,
		enums.OrderStatusCancelado,
	},
	enums.OrderStatusProcesando: {
		enums.OrderStatusPagado,
		enums.OrderStatusCancelado,
	},
	enums.OrderStatusPagado: {
		enums.OrderStatusEnviado,
		enums.OrderStatusCompletado,
		enums.OrderStatusCancelado,
	},
	enums.OrderStatusEnviado: {
		enums.OrderStatusCompletado,
		enums.OrderStatusCancelado,
	},
	enums.OrderStatusCompletado: {
		enums.OrderStatusCancelado,
	},
	enums.OrderStatusCancelado: {},
}

// CanTransition reports whether from → to is an allowed move.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a coded error describing why a move is rejected.
func ValidateTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if from == enums.OrderStatusCancelado {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already canceled").
			WithDetails(map[string]string{"status": from.String()})
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
			WithDetails(map[string]string{"from": from.String(), "to": to.String()})
	}
	return nil
}

// holdsReservation reports whether stock for this order is still carried in
// reserved_stock rather than deducted from stock.
func holdsReservation(status enums.OrderStatus) bool {
	return status == enums.OrderStatusPendiente || status == enums.OrderStatusProcesando
}

// consumedStock reports whether the order's units have left stock entirely.
func consumedStock(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusPagado, enums.OrderStatusEnviado, enums.OrderStatusCompletado:
		return true
	}
	return false
}
