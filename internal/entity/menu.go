package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Category groups menu items for display ordering.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`

	ID              int64     `bun:",pk,autoincrement"`
	EstablishmentID int64     `bun:"establishment_id,notnull"`
	Name            string    `bun:"name,notnull"`
	Description     string    `bun:"description,nullzero"`
	Active          bool      `bun:"active,notnull"`
	SortOrder       int       `bun:"sort_order,notnull"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// MenuItem is the catalog read model. The engine only reads price and
// availability at line-creation time; the catalog itself is maintained by an
// adjacent admin service.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID              int64     `bun:",pk,autoincrement"`
	EstablishmentID int64     `bun:"establishment_id,notnull"`
	CategoryID      int64     `bun:"category_id,notnull"`
	Name            string    `bun:"name,notnull"`
	PriceCents      int64     `bun:"price_cents,notnull"`
	Available       bool      `bun:"available,notnull"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero"`
}
