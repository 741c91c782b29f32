// Package orders implements the order state machine and its stock side
// effects. Unpaid orders hold their units in reserved_stock; payment consumes
// the hold; cancellation returns units to wherever they were taken from.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmcastellanos/tienda-backend/internal/inventory"
	"github.com/jmcastellanos/tienda-backend/internal/products"
	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
	"github.com/jmcastellanos/tienda-backend/pkg/enums"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
	"github.com/jmcastellanos/tienda-backend/pkg/outbox"
	"github.com/jmcastellanos/tienda-backend/pkg/outbox/payloads"
	"github.com/jmcastellanos/tienda-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderLineInput references a product and quantity for a new order.
type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput carries everything needed to open an order.
type CreateInput struct {
	Status        enums.OrderStatus
	PaymentMethod enums.PaymentMethod
	Items         []OrderLineInput
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	repo     Repository
	products products.Repository
	tx       txRunner
	outbox   outboxPublisher
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, productRepo products.Repository, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		products: productRepo,
		tx:       tx,
		outbox:   publisher,
	}, nil
}

// Create opens an order and applies the stock effect its initial status
// demands: unpaid orders reserve units, paid orders deduct them outright.
// Line items snapshot the product name and price at creation time.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	status := input.Status
	if status == "" {
		status = enums.OrderStatusPendiente
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if status == enums.OrderStatusCancelado {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders cannot be created canceled")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productRepo := s.products.WithTx(tx)

		order := models.Order{
			ID:            uuid.New(),
			Status:        status,
			PaymentMethod: input.PaymentMethod,
		}

		for _, item := range input.Items {
			product, err := productRepo.FindByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeConflict, "product is not available").
					WithDetails(map[string]string{"productId": product.ID.String()})
			}

			if holdsReservation(status) {
				if err := inventory.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			} else {
				if err := inventory.Deduct(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}

			order.Items = append(order.Items, models.OrderItem{
				ID:             uuid.New(),
				OrderID:        order.ID,
				ProductID:      product.ID,
				Name:           product.Name,
				UnitPriceCents: product.PriceCents,
				Quantity:       item.Quantity,
			})
			order.TotalCents += product.PriceCents * item.Quantity
		}

		if err := repo.Create(ctx, &order); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data:          orderCreatedPayload(&order),
		}); err != nil {
			return err
		}
		if status == enums.OrderStatusPagado {
			if err := s.emitPaid(ctx, tx, &order); err != nil {
				return err
			}
		}

		created = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	return s.repo.List(ctx, params)
}

// UpdateStatus moves an order through the state machine. Reaching Pagado
// converts the reservation hold into a real deduction; every other forward
// move is bookkeeping only. Cancellation goes through Cancel.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if to == enums.OrderStatusCancelado {
		return s.Cancel(ctx, id)
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == to {
			updated = order
			return nil
		}
		if err := ValidateTransition(order.Status, to); err != nil {
			return err
		}

		if to == enums.OrderStatusPagado && holdsReservation(order.Status) {
			for _, item := range order.Items {
				if err := inventory.Commit(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if err := repo.UpdateStatus(ctx, order.ID, to, nil); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderStatusChanged{
				OrderID:    order.ID,
				FromStatus: order.Status.String(),
				ToStatus:   to.String(),
			},
		}); err != nil {
			return err
		}
		if to == enums.OrderStatusPagado {
			if err := s.emitPaid(ctx, tx, order); err != nil {
				return err
			}
		}

		order.Status = to
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel terminates an order and restores its stock. Orders still holding a
// reservation give reserved units back; paid or shipped orders restock, since
// their units had already left the shelf. Canceling twice is a state conflict.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := ValidateTransition(order.Status, enums.OrderStatusCancelado); err != nil {
			return err
		}

		restocked := false
		switch {
		case holdsReservation(order.Status):
			for _, item := range order.Items {
				if err := inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case consumedStock(order.Status):
			for _, item := range order.Items {
				if err := inventory.Restock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			restocked = true
		}

		now := time.Now()
		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelado, &now); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCanceled{
				OrderID:        order.ID,
				PreviousStatus: order.Status.String(),
				StockRestored:  restocked,
			},
		}); err != nil {
			return err
		}

		order.Status = enums.OrderStatusCancelado
		order.CanceledAt = &now
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) emitPaid(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: map[string]any{
			"orderId":       order.ID,
			"totalCents":    order.TotalCents,
			"paymentMethod": order.PaymentMethod.String(),
		},
	})
}

func orderCreatedPayload(order *models.Order) payloads.OrderCreated {
	lines := make([]payloads.OrderLine, len(order.Items))
	for i, item := range order.Items {
		lines[i] = payloads.OrderLine{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		}
	}
	return payloads.OrderCreated{
		OrderID:       order.ID,
		Status:        order.Status.String(),
		PaymentMethod: order.PaymentMethod.String(),
		TotalCents:    order.TotalCents,
		Lines:         lines,
	}
}
