// Package reservations implements the stock hold lifecycle: reserve on
// add-to-cart, release on abandonment or expiry, settle on checkout.
package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/jmcastellanos/tienda-backend/internal/inventory"
	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
	"github.com/jmcastellanos/tienda-backend/pkg/enums"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
	"github.com/jmcastellanos/tienda-backend/pkg/logger"
	"github.com/jmcastellanos/tienda-backend/pkg/outbox"
	"github.com/jmcastellanos/tienda-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Identity carries the anonymous checkout identifiers a reservation belongs to.
type Identity struct {
	SessionID *string
	CookieID  *string
}

func (id Identity) empty() bool {
	return id.SessionID == nil && id.CookieID == nil
}

// ReserveItem asks for a hold of Quantity units on one product.
type ReserveItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// ReserveInput is a batch reservation request for one checkout identity.
type ReserveInput struct {
	Identity Identity
	Items    []ReserveItem
}

// ReserveResult reports the outcome for a single requested item.
type ReserveResult struct {
	ProductID     uuid.UUID  `json:"productId"`
	Quantity      int        `json:"quantity"`
	Reserved      bool       `json:"reserved"`
	ReservationID *uuid.UUID `json:"reservationId,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Available     *int       `json:"available,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// ReleaseInput targets reservations either by explicit IDs or by identity.
type ReleaseInput struct {
	ReservationIDs []uuid.UUID
	Identity       Identity
}

// SettleItem converts one active reservation into a confirmed sale.
type SettleResult struct {
	ReservationID uuid.UUID `json:"reservationId"`
	ProductID     uuid.UUID `json:"productId"`
	Quantity      int       `json:"quantity"`
	Settled       bool      `json:"settled"`
	Reason        string    `json:"reason,omitempty"`
}

// Service exposes the reservation lifecycle operations.
type Service interface {
	Reserve(ctx context.Context, input ReserveInput) ([]ReserveResult, error)
	Release(ctx context.Context, input ReleaseInput) (int, error)
	Settle(ctx context.Context, ids []uuid.UUID) ([]SettleResult, error)
	DeductDirect(ctx context.Context, items []ReserveItem) error
	Sweep(ctx context.Context, batchSize int) (int, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	outbox outboxPublisher
	logg   *logger.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewService builds the reservation service.
func NewService(tx txRunner, repo Repository, publisher outboxPublisher, logg *logger.Logger, ttl time.Duration) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("reservation ttl must be positive")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		outbox: publisher,
		logg:   logg,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Reserve attempts every requested item inside one transaction. Items that
// fail the availability guard are rolled back to a savepoint and reported
// individually, so one sold-out product never blocks the rest of the cart.
func (s *service) Reserve(ctx context.Context, input ReserveInput) ([]ReserveResult, error) {
	if input.Identity.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session or cookie identity required")
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

	results := make([]ReserveResult, len(input.Items))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		expiresAt := s.now().Add(s.ttl)

		for i, item := range input.Items {
			results[i] = ReserveResult{ProductID: item.ProductID, Quantity: item.Quantity}

			sp := fmt.Sprintf("sp_reserve_%d", i)
			tx.SavePoint(sp)

			if err := inventory.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
				typed := pkgerrors.As(err)
				if typed == nil {
					return err
				}
				switch typed.Code() {
				case pkgerrors.CodeInsufficientStock:
					tx.RollbackTo(sp)
					results[i].Reason = string(typed.Code())
					if details, ok := typed.Details().(inventory.InsufficientStockDetails); ok {
						available := details.Available
						results[i].Available = &available
					}
					continue
				case pkgerrors.CodeNotFound:
					tx.RollbackTo(sp)
					results[i].Reason = string(typed.Code())
					continue
				default:
					return err
				}
			}

			row := models.StockReservation{
				ID:        uuid.New(),
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				SessionID: input.Identity.SessionID,
				CookieID:  input.Identity.CookieID,
				Status:    enums.ReservationStatusActive,
				ExpiresAt: expiresAt,
			}
			if err := repo.Create(ctx, &row); err != nil {
				return err
			}

			id := row.ID
			expiry := row.ExpiresAt
			results[i].Reserved = true
			results[i].ReservationID = &id
			results[i].ExpiresAt = &expiry
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Release returns held units to the available pool. Reservations already in a
// terminal state are skipped, so retries and double-clicks are harmless. The
// returned count covers only the reservations this call actually released.
func (s *service) Release(ctx context.Context, input ReleaseInput) (int, error) {
	released := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := s.targetReservations(ctx, repo, input)
		if err != nil {
			return err
		}

		for _, row := range rows {
			won, err := repo.TransitionStatus(ctx, row.ID, enums.ReservationStatusReleased)
			if err != nil {
				return err
			}
			if !won {
				continue
			}
			if err := inventory.Release(ctx, tx, row.ProductID, row.Quantity); err != nil {
				return err
			}
			released++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

func (s *service) targetReservations(ctx context.Context, repo Repository, input ReleaseInput) ([]models.StockReservation, error) {
	if len(input.ReservationIDs) > 0 {
		return repo.FindActiveByIDs(ctx, input.ReservationIDs)
	}
	if input.Identity.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation ids or identity required")
	}
	return repo.FindActiveByIdentity(ctx, input.Identity.SessionID, input.Identity.CookieID)
}

// Settle converts active reservations into confirmed sales. Each reservation
// is settled under its own savepoint; a guard miss rolls that item back and
// leaves its reservation untouched while siblings proceed.
func (s *service) Settle(ctx context.Context, ids []uuid.UUID) ([]SettleResult, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one reservation id required")
	}

	var results []SettleResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for i, id := range ids {
			row, err := repo.FindByID(ctx, id)
			if err != nil {
				typed := pkgerrors.As(err)
				if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					results = append(results, SettleResult{ReservationID: id, Reason: string(pkgerrors.CodeNotFound)})
					continue
				}
				return err
			}

			result := SettleResult{
				ReservationID: row.ID,
				ProductID:     row.ProductID,
				Quantity:      row.Quantity,
			}

			sp := fmt.Sprintf("sp_settle_%d", i)
			tx.SavePoint(sp)

			won, err := repo.TransitionStatus(ctx, row.ID, enums.ReservationStatusCompleted)
			if err != nil {
				return err
			}
			if !won {
				result.Reason = string(pkgerrors.CodeStateConflict)
				results = append(results, result)
				continue
			}

			if err := inventory.Commit(ctx, tx, row.ProductID, row.Quantity); err != nil {
				typed := pkgerrors.As(err)
				if typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
					tx.RollbackTo(sp)
					result.Reason = string(typed.Code())
					results = append(results, result)
					continue
				}
				return err
			}

			result.Settled = true
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeductDirect decrements stock without a prior reservation, for flows where
// an operator records a sale straight against inventory. All items succeed or
// the whole call fails.
func (s *service) DeductDirect(ctx context.Context, items []ReserveItem) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range items {
			if err := inventory.Deduct(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sweep releases reservations whose TTL elapsed. Each expired row gets its own
// transaction, so a failure on one product cannot poison the batch, and the
// guarded status transition guarantees a reservation is swept exactly once
// even with overlapping sweepers.
func (s *service) Sweep(ctx context.Context, batchSize int) (int, error) {
	cutoff := s.now()
	expired, err := s.repo.FindExpiredActive(ctx, cutoff, batchSize)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	cleaned := 0
	var sweepErrs error
	for _, row := range expired {
		row := row
		won := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			ok, err := repo.TransitionStatus(ctx, row.ID, enums.ReservationStatusReleased)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := inventory.Release(ctx, tx, row.ProductID, row.Quantity); err != nil {
				return err
			}
			won = true
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventReservationsExpired,
				AggregateType: enums.AggregateReservation,
				AggregateID:   row.ID,
				Version:       1,
				Data: payloads.ReservationExpired{
					ReservationID: row.ID,
					ProductID:     row.ProductID,
					Quantity:      row.Quantity,
					ExpiredAt:     row.ExpiresAt,
				},
			})
		})
		if err != nil {
			if s.logg != nil {
				logCtx := s.logg.WithField(ctx, "reservation_id", row.ID.String())
				s.logg.Error(logCtx, "sweep reservation failed", err)
			}
			sweepErrs = multierr.Append(sweepErrs, err)
			continue
		}
		// counted only once the release transaction commits
		if won {
			cleaned++
		}
	}
	return cleaned, sweepErrs
}
