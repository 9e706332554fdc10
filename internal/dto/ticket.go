package dto

import "time"

// TicketResponse represents a kitchen ticket with its member lines.
type TicketResponse struct {
	ID           int64               `json:"id"`
	OrderID      int64               `json:"order_id"`
	Status       string              `json:"status"`
	KitchenNotes string              `json:"kitchen_notes,omitempty"`
	ValueCents   int64               `json:"value_cents"`
	Lines        []OrderLineResponse `json:"lines,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TicketValueResponse reports the worth of a ticket's member lines.
type TicketValueResponse struct {
	TicketID   int64 `json:"ticket_id"`
	ValueCents int64 `json:"value_cents"`
}
