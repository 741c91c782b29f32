// Package inventory owns the stock counters on products. Every mutation is a
// single guarded relative UPDATE, so concurrent checkouts can never drive
// stock or reserved_stock below zero regardless of interleaving.
package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
)

// InsufficientStockDetails is attached to INSUFFICIENT_STOCK errors so callers
// can tell buyers how many units remain.
type InsufficientStockDetails struct {
	ProductID uuid.UUID `json:"productId"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

func requireTx(tx *gorm.DB) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory mutation")
	}
	return nil
}

func validQty(qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

// Reserve moves qty units from available into reserved. The guard compares
// against stock - reserved_stock, so oversell is impossible even when two
// requests race for the last unit.
func Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := validQty(qty); err != nil {
		return err
	}
	if err := requireTx(tx); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET reserved_stock = reserved_stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock - reserved_stock >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return insufficientStock(ctx, tx, productID, qty)
	}
	return nil
}

// Release returns qty reserved units to the available pool. A guard miss means
// the reservation was already accounted for, which is a no-op rather than an
// error so releases stay idempotent.
func Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if err := requireTx(tx); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET reserved_stock = reserved_stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND reserved_stock >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	return nil
}

// Commit consumes a previously reserved quantity: both stock and
// reserved_stock drop by qty. Used when a reservation settles into an order.
func Commit(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := validQty(qty); err != nil {
		return err
	}
	if err := requireTx(tx); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock - ?,
			reserved_stock = reserved_stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ? AND reserved_stock >= ?
	`, qty, qty, productID, qty, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "commit reserved stock")
	}
	if res.RowsAffected == 0 {
		return insufficientStock(ctx, tx, productID, qty)
	}
	return nil
}

// Deduct decrements stock directly without touching reserved_stock. Used for
// order flows that skip the reservation phase.
func Deduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := validQty(qty); err != nil {
		return err
	}
	if err := requireTx(tx); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock - reserved_stock >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deduct stock")
	}
	if res.RowsAffected == 0 {
		return insufficientStock(ctx, tx, productID, qty)
	}
	return nil
}

// Restock adds qty units back to stock. Used when a paid or shipped order is
// canceled and its units return to the shelf.
func Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if err := requireTx(tx); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock")
	}
	return nil
}

func insufficientStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, requested int) error {
	var product models.Product
	err := tx.WithContext(ctx).
		Select("id", "stock", "reserved_stock").
		First(&product, "id = ?", productID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product counters")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock available").
		WithDetails(InsufficientStockDetails{
			ProductID: productID,
			Requested: requested,
			Available: product.Available(),
		})
}
