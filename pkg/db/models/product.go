package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a catalog listing plus its authoritative stock counters.
//
// Stock and ReservedStock are mutated only through the inventory ledger's
// guarded relative updates; nothing else may write these columns.
// Available quantity is Stock - ReservedStock, floored at zero.
type Product struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string         `gorm:"column:name;not null"`
	Slug          string         `gorm:"column:slug;not null;uniqueIndex"`
	Description   *string        `gorm:"column:description"`
	PriceCents    int            `gorm:"column:price_cents;not null"`
	Tags          pq.StringArray `gorm:"column:tags;type:text[]"`
	Stock         int            `gorm:"column:stock;not null;default:0"`
	ReservedStock int            `gorm:"column:reserved_stock;not null;default:0"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// Available returns the quantity offerable to new reservations.
func (p Product) Available() int {
	available := p.Stock - p.ReservedStock
	if available < 0 {
		return 0
	}
	return available
}
