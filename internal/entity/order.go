package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderStatus enumerates the lifecycle of an open tab.
type OrderStatus string

const (
	OrderOpen          OrderStatus = "open"
	OrderInPreparation OrderStatus = "in_preparation"
	OrderClosed        OrderStatus = "closed"
	OrderCancelled     OrderStatus = "cancelled"
)

// Mutable reports whether lines may still be added to the order.
func (s OrderStatus) Mutable() bool {
	return s == OrderOpen || s == OrderInPreparation
}

// Order represents one running tab, usually tied to a table. TotalCents is
// always derived from the lines; it is never hand-edited.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int64       `bun:",pk,autoincrement"`
	EstablishmentID int64       `bun:"establishment_id,notnull"`
	TableID         *int64      `bun:"table_id,nullzero"`
	Status          OrderStatus `bun:"status,notnull"`
	TotalCents      int64       `bun:"total_cents,notnull"`
	TipCents        *int64      `bun:"tip_cents,nullzero"`
	ClosingNotes    string      `bun:"closing_notes,nullzero"`
	CreatedAt       time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time   `bun:"updated_at,nullzero"`

	Lines []*OrderLine `bun:"rel:has-many,join:id=order_id"`
}

// OrderLine is one quantity-priced entry within an order. UnitPriceCents and
// SubtotalCents are captured when the line is created so that later menu price
// edits never alter a running tab or a past ticket.
type OrderLine struct {
	bun.BaseModel `bun:"table:order_lines,alias:l"`

	ID              int64     `bun:",pk,autoincrement"`
	EstablishmentID int64     `bun:"establishment_id,notnull"`
	OrderID         int64     `bun:"order_id,notnull"`
	MenuItemID      int64     `bun:"menu_item_id,notnull"`
	MenuItemName    string    `bun:"menu_item_name,notnull"`
	Quantity        int       `bun:"quantity,notnull"`
	UnitPriceCents  int64     `bun:"unit_price_cents,notnull"`
	SubtotalCents   int64     `bun:"subtotal_cents,notnull"`
	TicketID        *int64    `bun:"ticket_id,nullzero"`
	Notes           string    `bun:"notes,nullzero"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`

	Ticket *Ticket `bun:"rel:belongs-to,join:ticket_id=id"`
}

// Dispatched reports whether the line already belongs to a ticket. Dispatched
// lines are immutable; callers cancel the ticket instead of editing them.
func (l *OrderLine) Dispatched() bool {
	return l.TicketID != nil
}

// OrderTotalCents computes the invariant total over loaded lines: the sum of
// subtotals for every line whose ticket is absent or not cancelled, plus tip.
// Lines on tickets in any other state keep contributing, including terminal
// delivered ones.
func OrderTotalCents(lines []*OrderLine, tipCents *int64) int64 {
	var total int64
	for _, line := range lines {
		if line.Ticket != nil && line.Ticket.Status == TicketCancelled {
			continue
		}
		total += line.SubtotalCents
	}
	if tipCents != nil {
		total += *tipCents
	}
	return total
}
