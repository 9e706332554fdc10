package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func TestOrderTotalCents_SumsUndispatchedLines(t *testing.T) {
	lines := []*OrderLine{
		{SubtotalCents: 1000},
		{SubtotalCents: 350},
	}
	assert.Equal(t, int64(1350), OrderTotalCents(lines, nil))
}

func TestOrderTotalCents_ExcludesCancelledTicketLinesOnly(t *testing.T) {
	cancelled := &Ticket{Status: TicketCancelled}
	delivered := &Ticket{Status: TicketDelivered}
	ready := &Ticket{Status: TicketReady}

	lines := []*OrderLine{
		{SubtotalCents: 1000, TicketID: ptr(1), Ticket: cancelled},
		{SubtotalCents: 350},
		{SubtotalCents: 500, TicketID: ptr(2), Ticket: delivered},
		{SubtotalCents: 725, TicketID: ptr(3), Ticket: ready},
	}
	// Delivered and ready tickets keep contributing; only cancelled drops out.
	assert.Equal(t, int64(1575), OrderTotalCents(lines, nil))
}

func TestOrderTotalCents_AddsTip(t *testing.T) {
	lines := []*OrderLine{{SubtotalCents: 350}}
	assert.Equal(t, int64(450), OrderTotalCents(lines, ptr(100)))
	assert.Equal(t, int64(100), OrderTotalCents(nil, ptr(100)))
	assert.Equal(t, int64(0), OrderTotalCents(nil, nil))
}

func TestOrderStatus_Mutable(t *testing.T) {
	assert.True(t, OrderOpen.Mutable())
	assert.True(t, OrderInPreparation.Mutable())
	assert.False(t, OrderClosed.Mutable())
	assert.False(t, OrderCancelled.Mutable())
}

func TestOrderLine_Dispatched(t *testing.T) {
	line := &OrderLine{}
	assert.False(t, line.Dispatched())
	line.TicketID = ptr(7)
	assert.True(t, line.Dispatched())
}
