package kitchen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerobertocosta/Karibu/internal/database"
	"github.com/zerobertocosta/Karibu/internal/entity"
	orderrepo "github.com/zerobertocosta/Karibu/internal/repository/order"
	"github.com/zerobertocosta/Karibu/internal/testutil"
)

const establishmentID = int64(7)

type fixture struct {
	conns  *database.Connections
	orders *orderrepo.Repository
	repo   *Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conns := testutil.NewDB(t)
	return &fixture{
		conns:  conns,
		orders: orderrepo.NewRepository(conns),
		repo:   NewRepository(conns),
	}
}

func (f *fixture) openOrder(t *testing.T, number string) *entity.Order {
	t.Helper()
	table := &entity.Table{
		EstablishmentID: establishmentID,
		Number:          number,
		Capacity:        4,
		Status:          entity.TableFree,
	}
	_, err := f.conns.Writer.NewInsert().Model(table).Exec(context.Background())
	require.NoError(t, err)

	order, err := f.orders.Open(context.Background(), establishmentID, table.ID)
	require.NoError(t, err)
	return order
}

func (f *fixture) addLine(t *testing.T, orderID int64, name string, qty int, unitPrice int64) *entity.OrderLine {
	t.Helper()
	line, err := f.orders.AddLine(context.Background(), &entity.OrderLine{
		EstablishmentID: establishmentID,
		OrderID:         orderID,
		MenuItemID:      1,
		MenuItemName:    name,
		Quantity:        qty,
		UnitPriceCents:  unitPrice,
	})
	require.NoError(t, err)
	return line
}

func (f *fixture) ticketCount(t *testing.T) int {
	t.Helper()
	count, err := f.conns.Reader.NewSelect().Model((*entity.Ticket)(nil)).Count(context.Background())
	require.NoError(t, err)
	return count
}

func TestDispatchSnapshotsLinesAtomically(t *testing.T) {
	f := newFixture(t)
	order := f.openOrder(t, "12")
	pizza := f.addLine(t, order.ID, "Margherita", 2, 2500)
	f.addLine(t, order.ID, "Caipirinha", 1, 1600)

	ticket, updated, err := f.repo.Dispatch(context.Background(), establishmentID, order.ID, []int64{pizza.ID}, "no onions")
	require.NoError(t, err)
	assert.Equal(t, entity.TicketAwaiting, ticket.Status)
	assert.Equal(t, "no onions", ticket.KitchenNotes)
	require.Len(t, ticket.Lines, 1)
	require.NotNil(t, ticket.Lines[0].TicketID)
	assert.Equal(t, ticket.ID, *ticket.Lines[0].TicketID)
	assert.Equal(t, entity.OrderInPreparation, updated.Status)

	// a second dispatch of the same line fails and persists nothing
	_, _, err = f.repo.Dispatch(context.Background(), establishmentID, order.ID, []int64{pizza.ID}, "")
	assert.ErrorIs(t, err, orderrepo.ErrLineDispatched)
	assert.Equal(t, 1, f.ticketCount(t))
}

func TestDispatchRejectsForeignAndMissingLines(t *testing.T) {
	f := newFixture(t)
	first := f.openOrder(t, "12")
	second := f.openOrder(t, "13")
	f.addLine(t, first.ID, "Margherita", 1, 2500)
	stray := f.addLine(t, second.ID, "Feijoada", 1, 4200)

	_, _, err := f.repo.Dispatch(context.Background(), establishmentID, first.ID, []int64{stray.ID}, "")
	assert.ErrorIs(t, err, orderrepo.ErrLineWrongOrder)

	_, _, err = f.repo.Dispatch(context.Background(), establishmentID, first.ID, []int64{999}, "")
	assert.ErrorIs(t, err, orderrepo.ErrLineNotFound)

	assert.Equal(t, 0, f.ticketCount(t))
}

func TestAdvanceWalksOneStepAtATime(t *testing.T) {
	f := newFixture(t)
	order := f.openOrder(t, "12")
	line := f.addLine(t, order.ID, "Margherita", 1, 2500)

	ticket, _, err := f.repo.Dispatch(context.Background(), establishmentID, order.ID, []int64{line.ID}, "")
	require.NoError(t, err)

	_, err = f.repo.Advance(context.Background(), establishmentID, ticket.ID, entity.TicketReady)
	assert.ErrorIs(t, err, ErrBadTransition, "skipping in_preparation must fail")

	for _, next := range []entity.TicketStatus{entity.TicketInPreparation, entity.TicketReady, entity.TicketDelivered} {
		got, err := f.repo.Advance(context.Background(), establishmentID, ticket.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}

	_, err = f.repo.Advance(context.Background(), establishmentID, ticket.ID, entity.TicketCancelled)
	assert.ErrorIs(t, err, ErrBadTransition, "delivered is terminal")
}

func TestCancelledTicketLeavesOrderTotal(t *testing.T) {
	f := newFixture(t)
	order := f.openOrder(t, "12")
	f.addLine(t, order.ID, "Margherita", 2, 2500)
	caipirinha := f.addLine(t, order.ID, "Caipirinha", 1, 1600)

	ticket, _, err := f.repo.Dispatch(context.Background(), establishmentID, order.ID, []int64{caipirinha.ID}, "")
	require.NoError(t, err)

	got, err := f.orders.GetByID(context.Background(), establishmentID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6600), got.TotalCents, "dispatch must not change the total")

	_, err = f.repo.Advance(context.Background(), establishmentID, ticket.ID, entity.TicketCancelled)
	require.NoError(t, err)

	got, err = f.orders.GetByID(context.Background(), establishmentID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.TotalCents, "cancelled ticket lines leave the total")
}

func TestTicketValueSumsMemberLines(t *testing.T) {
	f := newFixture(t)
	order := f.openOrder(t, "12")
	pizza := f.addLine(t, order.ID, "Margherita", 2, 2500)
	feijoada := f.addLine(t, order.ID, "Feijoada", 1, 4200)

	ticket, _, err := f.repo.Dispatch(context.Background(), establishmentID, order.ID, []int64{pizza.ID, feijoada.ID}, "")
	require.NoError(t, err)

	value, err := f.repo.Value(context.Background(), establishmentID, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9200), value)

	_, err = f.repo.Value(context.Background(), establishmentID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	order := f.openOrder(t, "12")
	pizza := f.addLine(t, order.ID, "Margherita", 2, 2500)
	feijoada := f.addLine(t, order.ID, "Feijoada", 1, 4200)
	caipirinha := f.addLine(t, order.ID, "Caipirinha", 1, 1600)

	// two kitchen hand-offs: the food, then the drink
	food, _, err := f.repo.Dispatch(context.Background(), establishmentID, order.ID, []int64{pizza.ID, feijoada.ID}, "")
	require.NoError(t, err)
	drink, _, err := f.repo.Dispatch(context.Background(), establishmentID, order.ID, []int64{caipirinha.ID}, "")
	require.NoError(t, err)

	// the drink never arrives; the food is served
	_, err = f.repo.Advance(context.Background(), establishmentID, drink.ID, entity.TicketCancelled)
	require.NoError(t, err)
	for _, next := range []entity.TicketStatus{entity.TicketInPreparation, entity.TicketReady, entity.TicketDelivered} {
		_, err = f.repo.Advance(context.Background(), establishmentID, food.ID, next)
		require.NoError(t, err)
	}

	tip := int64(1000)
	closed, err := f.orders.Close(context.Background(), establishmentID, order.ID, &tip, "")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderClosed, closed.Status)
	assert.Equal(t, int64(10200), closed.TotalCents, "delivered lines plus tip, cancelled drink excluded")

	var tableStatus entity.TableStatus
	err = f.conns.Reader.NewSelect().
		Model((*entity.Table)(nil)).
		Column("status").
		Where("id = ?", *closed.TableID).
		Scan(context.Background(), &tableStatus)
	require.NoError(t, err)
	assert.Equal(t, entity.TableFree, tableStatus)
}
