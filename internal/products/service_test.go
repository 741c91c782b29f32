package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmcastellanos/tienda-backend/internal/reservations"
	"github.com/jmcastellanos/tienda-backend/pkg/db/models"
	"github.com/jmcastellanos/tienda-backend/pkg/enums"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
	"github.com/jmcastellanos/tienda-backend/pkg/pagination"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
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
	stockReservations := `
CREATE TABLE IF NOT EXISTS stock_reservations (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  session_id TEXT,
  cookie_id TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  expires_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, ddl := range []string{products, stockReservations} {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), testTxRunner{db: db}, reservations.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateAndGetProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Name:       "Gorra Negra",
		Slug:       "gorra-negra",
		PriceCents: 1299,
		Tags:       []string{"accesorios", "verano"},
		Stock:      20,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == uuid.Nil || !created.IsActive {
		t.Fatalf("unexpected product: %+v", created)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Gorra Negra" || got.Stock != 20 {
		t.Fatalf("unexpected product: %+v", got)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", got.Tags)
	}

	bySlug, err := svc.GetBySlug(ctx, "gorra-negra")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if bySlug.ID != created.ID {
		t.Fatalf("slug lookup mismatch")
	}
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	cases := []CreateInput{
		{Slug: "x", PriceCents: 1},
		{Name: "x", PriceCents: 1},
		{Name: "x", Slug: "x", PriceCents: -1},
		{Name: "x", Slug: "x", PriceCents: 1, Stock: -5},
	}
	for i, input := range cases {
		_, err := svc.Create(ctx, input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestUpdateProductPartial(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Name:       "Bolso Beige",
		Slug:       "bolso-beige",
		PriceCents: 4500,
		Stock:      5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newPrice := 3999
	inactive := false
	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		PriceCents: &newPrice,
		IsActive:   &inactive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PriceCents != 3999 || updated.IsActive {
		t.Fatalf("unexpected product: %+v", updated)
	}
	if updated.Name != "Bolso Beige" || updated.Stock != 5 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestDeleteBlockedByActiveReservations(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Name:       "Cinturon Cafe",
		Slug:       "cinturon-cafe",
		PriceCents: 1500,
		Stock:      3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	session := "sess-del"
	hold := models.StockReservation{
		ID:        uuid.New(),
		ProductID: created.ID,
		Quantity:  2,
		SessionID: &session,
		Status:    enums.ReservationStatusActive,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.Create(&hold).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	err = svc.Delete(ctx, created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// released holds no longer block deletion
	if err := db.Model(&models.StockReservation{}).
		Where("id = ?", hold.ID).
		Update("status", enums.ReservationStatusReleased).Error; err != nil {
		t.Fatalf("release hold: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = svc.Get(ctx, created.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

// txRecordingHolds wraps the real reservation repository and records which
// transaction the delete guard binds to.
type txRecordingHolds struct {
	reservations.Repository
	boundTx *gorm.DB
}

func (h *txRecordingHolds) WithTx(tx *gorm.DB) reservations.Repository {
	h.boundTx = tx
	return h.Repository.WithTx(tx)
}

func TestDeleteChecksHoldsInsideTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	holds := &txRecordingHolds{Repository: reservations.NewRepository(db)}
	svc, err := NewService(NewRepository(db), testTxRunner{db: db}, holds)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Name:       "Bufanda Gris",
		Slug:       "bufanda-gris",
		PriceCents: 900,
		Stock:      2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if holds.boundTx == nil {
		t.Fatal("expected holds check to run on the delete transaction")
	}
}

func TestListActiveOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Name: "A", Slug: "prod-a", PriceCents: 100, Stock: 1}); err != nil {
		t.Fatalf("create a: %v", err)
	}
	inactive := false
	if _, err := svc.Create(ctx, CreateInput{Name: "B", Slug: "prod-b", PriceCents: 100, Stock: 1, IsActive: &inactive}); err != nil {
		t.Fatalf("create b: %v", err)
	}

	rows, _, err := svc.List(ctx, pagination.Params{}, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Slug != "prod-a" {
		t.Fatalf("expected only active product, got %+v", rows)
	}

	all, _, err := svc.List(ctx, pagination.Params{}, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all))
	}
}
