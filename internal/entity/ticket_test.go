package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatus_CanTransition_ForwardPath(t *testing.T) {
	assert.True(t, TicketAwaiting.CanTransition(TicketInPreparation))
	assert.True(t, TicketInPreparation.CanTransition(TicketReady))
	assert.True(t, TicketReady.CanTransition(TicketDelivered))
}

func TestTicketStatus_CanTransition_NoSkipsOrBackwardMoves(t *testing.T) {
	cases := []struct {
		from TicketStatus
		to   TicketStatus
	}{
		{TicketAwaiting, TicketReady},
		{TicketAwaiting, TicketDelivered},
		{TicketInPreparation, TicketDelivered},
		{TicketInPreparation, TicketAwaiting},
		{TicketReady, TicketInPreparation},
		{TicketReady, TicketAwaiting},
		{TicketDelivered, TicketReady},
		{TicketAwaiting, TicketAwaiting},
	}
	for _, c := range cases {
		assert.False(t, c.from.CanTransition(c.to), "%s -> %s should be rejected", c.from, c.to)
	}
}

func TestTicketStatus_CanTransition_Cancel(t *testing.T) {
	assert.True(t, TicketAwaiting.CanTransition(TicketCancelled))
	assert.True(t, TicketInPreparation.CanTransition(TicketCancelled))
	assert.True(t, TicketReady.CanTransition(TicketCancelled))

	// Terminal states stay terminal.
	assert.False(t, TicketDelivered.CanTransition(TicketCancelled))
	assert.False(t, TicketCancelled.CanTransition(TicketAwaiting))
	assert.False(t, TicketCancelled.CanTransition(TicketCancelled))
}

func TestTicketStatus_CanTransition_UnknownTarget(t *testing.T) {
	assert.False(t, TicketAwaiting.CanTransition(TicketStatus("burnt")))
}

func TestTicket_ValueCents(t *testing.T) {
	ticket := &Ticket{
		Lines: []*OrderLine{
			{SubtotalCents: 1000},
			{SubtotalCents: 350},
		},
	}
	assert.Equal(t, int64(1350), ticket.ValueCents())

	empty := &Ticket{}
	assert.Equal(t, int64(0), empty.ValueCents())
}
