package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
	"github.com/jmcastellanos/tienda-backend/pkg/enums"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
)

// Repository persists stock reservations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, reservation *models.StockReservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockReservation, error)
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.StockReservation, error)
	FindActiveByIdentity(ctx context.Context, sessionID, cookieID *string) ([]models.StockReservation, error)
	FindExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.StockReservation, error)
	SumActiveByProduct(ctx context.Context, productID uuid.UUID) (int, error)
	// TransitionStatus flips a reservation out of active. It reports whether
	// this call won the transition, so racing sweepers and releasers cannot
	// both act on the same row.
	TransitionStatus(ctx context.Context, id uuid.UUID, to enums.ReservationStatus) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reservation repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, reservation *models.StockReservation) error {
	if reservation == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation required")
	}
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockReservation, error) {
	var row models.StockReservation
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find reservation")
	}
	return &row, nil
}

func (r *repository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.StockReservation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.StockReservation
	err := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, enums.ReservationStatusActive).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active reservations")
	}
	return rows, nil
}

func (r *repository) FindActiveByIdentity(ctx context.Context, sessionID, cookieID *string) ([]models.StockReservation, error) {
	query := r.db.WithContext(ctx).Where("status = ?", enums.ReservationStatusActive)
	switch {
	case sessionID != nil && cookieID != nil:
		query = query.Where("session_id = ? OR cookie_id = ?", *sessionID, *cookieID)
	case sessionID != nil:
		query = query.Where("session_id = ?", *sessionID)
	case cookieID != nil:
		query = query.Where("cookie_id = ?", *cookieID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session or cookie identity required")
	}

	var rows []models.StockReservation
	if err := query.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find reservations by identity")
	}
	return rows, nil
}

func (r *repository) FindExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.StockReservation, error) {
	var rows []models.StockReservation
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", enums.ReservationStatusActive, cutoff).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find expired reservations")
	}
	return rows, nil
}

func (r *repository) SumActiveByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Select("SUM(quantity)").
		Where("product_id = ? AND status = ?", productID, enums.ReservationStatusActive).
		Scan(&total).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active reservations")
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, to enums.ReservationStatus) (bool, error) {
	if !to.IsTerminal() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "reservations can only transition to a terminal status")
	}
	res := r.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("id = ? AND status = ?", id, enums.ReservationStatusActive).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "transition reservation")
	}
	return res.RowsAffected == 1, nil
}
