package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// TicketStatus enumerates the kitchen workflow states of a dispatch batch.
type TicketStatus string

const (
	TicketAwaiting      TicketStatus = "awaiting"
	TicketInPreparation TicketStatus = "in_preparation"
	TicketReady         TicketStatus = "ready"
	TicketDelivered     TicketStatus = "delivered"
	TicketCancelled     TicketStatus = "cancelled"
)

// ticketRank orders the forward path awaiting -> in_preparation -> ready ->
// delivered. Cancelled sits outside the path.
var ticketRank = map[TicketStatus]int{
	TicketAwaiting:      0,
	TicketInPreparation: 1,
	TicketReady:         2,
	TicketDelivered:     3,
}

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	if s == TicketCancelled {
		return true
	}
	_, ok := ticketRank[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
func (s TicketStatus) Terminal() bool {
	return s == TicketDelivered || s == TicketCancelled
}

// CanTransition reports whether a ticket may move from one status to the next.
// The forward path advances exactly one step at a time; cancelled is reachable
// from any non-terminal state. Skips and backward moves are rejected so the
// caller surfaces them instead of the engine silently walking intermediates.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == TicketCancelled {
		return true
	}
	return ticketRank[next] == ticketRank[s]+1
}

// Ticket is one atomic hand-off of order lines to the kitchen. Its line
// membership is fixed at creation; only the status changes afterwards.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID              int64        `bun:",pk,autoincrement"`
	EstablishmentID int64        `bun:"establishment_id,notnull"`
	OrderID         int64        `bun:"order_id,notnull"`
	Status          TicketStatus `bun:"status,notnull"`
	KitchenNotes    string       `bun:"kitchen_notes,nullzero"`
	CreatedAt       time.Time    `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `bun:"updated_at,nullzero"`

	Lines []*OrderLine `bun:"rel:has-many,join:id=ticket_id"`
}

// ValueCents sums the subtotals of the loaded member lines.
func (t *Ticket) ValueCents() int64 {
	var total int64
	for _, line := range t.Lines {
		total += line.SubtotalCents
	}
	return total
}
