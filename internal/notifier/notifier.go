package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/zerobertocosta/Karibu/internal/entity"
)

// TicketLine is the display projection of one dispatched line.
type TicketLine struct {
	MenuItemName string `json:"menu_item_name"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes,omitempty"`
}

// TicketNotification is the read-only projection broadcast to kitchen
// displays when a ticket is dispatched. It is never used to reconstruct
// write-side state.
type TicketNotification struct {
	TicketID     int64        `json:"ticket_id"`
	OrderID      int64        `json:"order_id"`
	TableNumber  string       `json:"table_number,omitempty"`
	Lines        []TicketLine `json:"lines"`
	KitchenNotes string       `json:"kitchen_notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Publisher delivers a best-effort broadcast to every kitchen display
// subscribed to the channel. Implementations must never block the caller on a
// slow or disconnected display, and must keep notifications published to one
// channel in the order the calls were made.
type Publisher interface {
	Publish(ctx context.Context, channelKey string, n TicketNotification) error
}

// ChannelKey names the single logical broadcast channel of an establishment.
func ChannelKey(establishmentID int64) string {
	return fmt.Sprintf("kitchen_updates:%d", establishmentID)
}

// FromTicket builds the display projection for a dispatched ticket.
func FromTicket(ticket *entity.Ticket, tableNumber string) TicketNotification {
	lines := make([]TicketLine, 0, len(ticket.Lines))
	for _, line := range ticket.Lines {
		lines = append(lines, TicketLine{
			MenuItemName: line.MenuItemName,
			Quantity:     line.Quantity,
			Notes:        line.Notes,
		})
	}
	return TicketNotification{
		TicketID:     ticket.ID,
		OrderID:      ticket.OrderID,
		TableNumber:  tableNumber,
		Lines:        lines,
		KitchenNotes: ticket.KitchenNotes,
		CreatedAt:    ticket.CreatedAt,
	}
}
