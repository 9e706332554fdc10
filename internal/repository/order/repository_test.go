package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerobertocosta/Karibu/internal/database"
	"github.com/zerobertocosta/Karibu/internal/entity"
	"github.com/zerobertocosta/Karibu/internal/testutil"
)

const establishmentID = int64(7)

func seedTable(t *testing.T, conns *database.Connections, number string) *entity.Table {
	t.Helper()
	table := &entity.Table{
		EstablishmentID: establishmentID,
		Number:          number,
		Capacity:        4,
		Status:          entity.TableFree,
	}
	_, err := conns.Writer.NewInsert().Model(table).Exec(context.Background())
	require.NoError(t, err)
	return table
}

func addLine(t *testing.T, repo *Repository, orderID int64, name string, qty int, unitPrice int64) *entity.OrderLine {
	t.Helper()
	line, err := repo.AddLine(context.Background(), &entity.OrderLine{
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

func TestOpenOccupiesTable(t *testing.T) {
	conns := testutil.NewDB(t)
	repo := NewRepository(conns)
	table := seedTable(t, conns, "12")

	order, err := repo.Open(context.Background(), establishmentID, table.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderOpen, order.Status)
	assert.Equal(t, int64(0), order.TotalCents)
	require.NotNil(t, order.TableID)
	assert.Equal(t, table.ID, *order.TableID)

	got := new(entity.Table)
	err = conns.Reader.NewSelect().Model(got).Where("id = ?", table.ID).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.TableOccupied, got.Status)

	_, err = repo.Open(context.Background(), establishmentID, table.ID)
	assert.ErrorIs(t, err, ErrOpenOrderExists)
}

func TestOpenUnknownTable(t *testing.T) {
	conns := testutil.NewDB(t)
	repo := NewRepository(conns)

	_, err := repo.Open(context.Background(), establishmentID, 999)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestAddLineCapturedPriceDrivesSubtotal(t *testing.T) {
	conns := testutil.NewDB(t)
	repo := NewRepository(conns)
	table := seedTable(t, conns, "12")
	order, err := repo.Open(context.Background(), establishmentID, table.ID)
	require.NoError(t, err)

	line := addLine(t, repo, order.ID, "Margherita", 2, 2500)
	assert.Equal(t, int64(5000), line.SubtotalCents)

	got, err := repo.GetByID(context.Background(), establishmentID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.TotalCents)

	// the subtotal re-derives from the price captured at creation
	updated, err := repo.UpdateLineQuantity(context.Background(), establishmentID, line.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), updated.UnitPriceCents)
	assert.Equal(t, int64(7500), updated.SubtotalCents)

	got, err = repo.GetByID(context.Background(), establishmentID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), got.TotalCents)
}

func TestRemoveLineRecomputesTotal(t *testing.T) {
	conns := testutil.NewDB(t)
	repo := NewRepository(conns)
	table := seedTable(t, conns, "12")
	order, err := repo.Open(context.Background(), establishmentID, table.ID)
	require.NoError(t, err)

	addLine(t, repo, order.ID, "Margherita", 2, 2500)
	caipirinha := addLine(t, repo, order.ID, "Caipirinha", 1, 1600)

	require.NoError(t, repo.RemoveLine(context.Background(), establishmentID, caipirinha.ID))

	got, err := repo.GetByID(context.Background(), establishmentID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.TotalCents)
	assert.Len(t, got.Lines, 1)
}

func TestRecomputeTotalIsIdempotent(t *testing.T) {
	conns := testutil.NewDB(t)
	repo := NewRepository(conns)
	table := seedTable(t, conns, "12")
	order, err := repo.Open(context.Background(), establishmentID, table.ID)
	require.NoError(t, err)

	addLine(t, repo, order.ID, "Margherita", 2, 2500)
	addLine(t, repo, order.ID, "Caipirinha", 1, 1600)

	// drift the stored total so the first recomputation has work to do
	_, err = conns.Writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("total_cents = ?", 0).
		Where("id = ?", order.ID).
		Exec(context.Background())
	require.NoError(t, err)

	total, changed, err := repo.RecomputeTotal(context.Background(), establishmentID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6600), total)
	assert.True(t, changed)

	total, changed, err = repo.RecomputeTotal(context.Background(), establishmentID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6600), total)
	assert.False(t, changed, "a second recomputation must not write")
}

func TestLineEditsRejectedOnTicketedLine(t *testing.T) {
	conns := testutil.NewDB(t)
	repo := NewRepository(conns)
	table := seedTable(t, conns, "12")
	order, err := repo.Open(context.Background(), establishmentID, table.ID)
	require.NoError(t, err)
	line := addLine(t, repo, order.ID, "Margherita", 2, 2500)

	ticket := &entity.Ticket{EstablishmentID: establishmentID, OrderID: order.ID, Status: entity.TicketAwaiting}
	_, err = conns.Writer.NewInsert().Model(ticket).Exec(context.Background())
	require.NoError(t, err)
	_, err = conns.Writer.NewUpdate().
		Model((*entity.OrderLine)(nil)).
		Set("ticket_id = ?", ticket.ID).
		Where("id = ?", line.ID).
		Exec(context.Background())
	require.NoError(t, err)

	_, err = repo.UpdateLineQuantity(context.Background(), establishmentID, line.ID, 5)
	assert.ErrorIs(t, err, ErrLineDispatched)
	err = repo.RemoveLine(context.Background(), establishmentID, line.ID)
	assert.ErrorIs(t, err, ErrLineDispatched)
}

func TestCloseWaitsForTickets(t *testing.T) {
	conns := testutil.NewDB(t)
	repo := NewRepository(conns)
	table := seedTable(t, conns, "12")
	order, err := repo.Open(context.Background(), establishmentID, table.ID)
	require.NoError(t, err)
	addLine(t, repo, order.ID, "Margherita", 2, 2500)

	ticket := &entity.Ticket{EstablishmentID: establishmentID, OrderID: order.ID, Status: entity.TicketAwaiting}
	_, err = conns.Writer.NewInsert().Model(ticket).Exec(context.Background())
	require.NoError(t, err)

	_, err = repo.Close(context.Background(), establishmentID, order.ID, nil, "")
	assert.ErrorIs(t, err, ErrTicketsOutstanding)

	_, err = conns.Writer.NewUpdate().
		Model((*entity.Ticket)(nil)).
		Set("status = ?", entity.TicketDelivered).
		Where("id = ?", ticket.ID).
		Exec(context.Background())
	require.NoError(t, err)

	tip := int64(500)
	closed, err := repo.Close(context.Background(), establishmentID, order.ID, &tip, "split bill")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderClosed, closed.Status)
	assert.Equal(t, int64(5500), closed.TotalCents)
	assert.Equal(t, "split bill", closed.ClosingNotes)

	got := new(entity.Table)
	err = conns.Reader.NewSelect().Model(got).Where("id = ?", table.ID).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.TableFree, got.Status)

	_, err = repo.Close(context.Background(), establishmentID, order.ID, nil, "")
	assert.ErrorIs(t, err, ErrOrderNotMutable)
}

func TestCrossEstablishmentIsInvisible(t *testing.T) {
	conns := testutil.NewDB(t)
	repo := NewRepository(conns)
	table := seedTable(t, conns, "12")
	order, err := repo.Open(context.Background(), establishmentID, table.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(context.Background(), establishmentID+1, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = repo.RecomputeTotal(context.Background(), establishmentID+1, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
