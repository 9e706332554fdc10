package dto

import "time"

// OrderResponse represents an order as exposed via transport layers.
// Money fields are integer cents.
type OrderResponse struct {
	ID           int64               `json:"id"`
	TableID      *int64              `json:"table_id,omitempty"`
	Status       string              `json:"status"`
	TotalCents   int64               `json:"total_cents"`
	TipCents     *int64              `json:"tip_cents,omitempty"`
	ClosingNotes string              `json:"closing_notes,omitempty"`
	Lines        []OrderLineResponse `json:"lines,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// OrderLineResponse represents a single order line.
type OrderLineResponse struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	MenuItemID     int64  `json:"menu_item_id"`
	MenuItemName   string `json:"menu_item_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
	Notes          string `json:"notes,omitempty"`
	TicketID       *int64 `json:"ticket_id,omitempty"`
	TicketStatus   string `json:"ticket_status,omitempty"`
}
