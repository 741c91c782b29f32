package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price_cents INTEGER NOT NULL,
  tags TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  reserved_stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(products).Error; err != nil {
		t.Fatalf("create products table: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock, reserved int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:            uuid.New(),
		Name:          "Camiseta Azul",
		Slug:          "camiseta-azul-" + uuid.NewString()[:8],
		PriceCents:    1999,
		Stock:         stock,
		ReservedStock: reserved,
		IsActive:      true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func loadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product
}

func TestReserveGuardsAvailability(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 5, 0)

	if err := Reserve(ctx, db, productID, 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// only 2 left available; asking for 3 must fail without changing counters
	err := Reserve(ctx, db, productID, 3)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(InsufficientStockDetails)
	if !ok {
		t.Fatalf("expected details, got %#v", typed.Details())
	}
	if details.Available != 2 || details.Requested != 3 {
		t.Fatalf("unexpected details: %+v", details)
	}

	product := loadProduct(t, db, productID)
	if product.Stock != 5 || product.ReservedStock != 3 {
		t.Fatalf("unexpected counters: stock=%d reserved=%d", product.Stock, product.ReservedStock)
	}
}

func TestReserveLastUnit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 1, 0)

	if err := Reserve(ctx, db, productID, 1); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := Reserve(ctx, db, productID, 1); pkgerrors.As(err) == nil {
		t.Fatalf("second reserve should fail, got %v", err)
	}

	product := loadProduct(t, db, productID)
	if product.ReservedStock != 1 {
		t.Fatalf("expected reserved=1, got %d", product.ReservedStock)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 5, 2)

	if err := Release(ctx, db, productID, 2); err != nil {
		t.Fatalf("release: %v", err)
	}
	// guard miss is a silent no-op
	if err := Release(ctx, db, productID, 2); err != nil {
		t.Fatalf("second release: %v", err)
	}

	product := loadProduct(t, db, productID)
	if product.ReservedStock != 0 {
		t.Fatalf("expected reserved=0, got %d", product.ReservedStock)
	}
}

func TestCommitConsumesReservation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 5, 3)

	if err := Commit(ctx, db, productID, 3); err != nil {
		t.Fatalf("commit: %v", err)
	}

	product := loadProduct(t, db, productID)
	if product.Stock != 2 || product.ReservedStock != 0 {
		t.Fatalf("unexpected counters: stock=%d reserved=%d", product.Stock, product.ReservedStock)
	}
}

func TestDeductRespectsReservedUnits(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 5, 4)

	// 4 of 5 units are held, so only 1 is deductible
	err := Deduct(ctx, db, productID, 2)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if err := Deduct(ctx, db, productID, 1); err != nil {
		t.Fatalf("deduct: %v", err)
	}

	product := loadProduct(t, db, productID)
	if product.Stock != 4 || product.ReservedStock != 4 {
		t.Fatalf("unexpected counters: stock=%d reserved=%d", product.Stock, product.ReservedStock)
	}
}

func TestRestockAddsUnits(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 2, 0)

	if err := Restock(ctx, db, productID, 3); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if err := Restock(ctx, db, productID, 0); err != nil {
		t.Fatalf("zero restock should no-op: %v", err)
	}

	product := loadProduct(t, db, productID)
	if product.Stock != 5 {
		t.Fatalf("expected stock=5, got %d", product.Stock)
	}
}

func TestReserveRejectsInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := seedProduct(t, db, 5, 0)

	err := Reserve(ctx, db, productID, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReserveUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	err := Reserve(ctx, db, uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
