package kitchen

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zerobertocosta/Karibu/internal/database"
	"github.com/zerobertocosta/Karibu/internal/entity"
	orderrepo "github.com/zerobertocosta/Karibu/internal/repository/order"
)

var repoTracer = otel.Tracer("github.com/zerobertocosta/Karibu/repository/kitchen")

var (
	// ErrNotFound is returned when the ticket is missing or belongs to another
	// establishment.
	ErrNotFound = errors.New("ticket not found")
	// ErrBadTransition is returned when the requested status is not reachable
	// in one step from the ticket's current status.
	ErrBadTransition = errors.New("invalid ticket status transition")
)

// Repository owns tickets: atomic dispatch of order lines and the ticket
// status machine. It shares the per-order lock discipline with the order
// repository so the two never interleave on the same order.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Dispatch snapshots the given un-dispatched lines of one order into a new
// awaiting ticket. Ticket creation, line attachment, the order status bump and
// the total recomputation commit as one unit; on any failure nothing is
// persisted. The returned ticket carries its member lines for notification.
func (r *Repository) Dispatch(ctx context.Context, establishmentID, orderID int64, lineIDs []int64, kitchenNotes string) (*entity.Ticket, *entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "KitchenRepository.Dispatch", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int("lines.count", len(lineIDs)),
	))
	defer span.End()

	var (
		ticket *entity.Ticket
		order  *entity.Order
	)
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		order, err = orderrepo.LockTx(ctx, tx, establishmentID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.Mutable() {
			return orderrepo.ErrOrderNotMutable
		}

		var lines []*entity.OrderLine
		err = tx.NewSelect().Model(&lines).
			Where("l.id IN (?)", bun.In(lineIDs)).
			Where("l.order_id = ? AND l.establishment_id = ?", orderID, establishmentID).
			Apply(database.RowLock).
			Scan(ctx)
		if err != nil {
			return err
		}
		if len(lines) != len(lineIDs) {
			// a line on another order of the establishment is a state
			// problem, not a missing row
			count, err := tx.NewSelect().
				Model((*entity.OrderLine)(nil)).
				Where("l.id IN (?)", bun.In(lineIDs)).
				Where("l.establishment_id = ?", establishmentID).
				Count(ctx)
			if err != nil {
				return err
			}
			if count > len(lines) {
				return orderrepo.ErrLineWrongOrder
			}
			return orderrepo.ErrLineNotFound
		}
		for _, line := range lines {
			if line.Dispatched() {
				return orderrepo.ErrLineDispatched
			}
		}

		now := time.Now().UTC()
		ticket = &entity.Ticket{
			EstablishmentID: establishmentID,
			OrderID:         orderID,
			Status:          entity.TicketAwaiting,
			KitchenNotes:    kitchenNotes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if _, err := tx.NewInsert().Model(ticket).Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().
			Model((*entity.OrderLine)(nil)).
			Set("ticket_id = ?", ticket.ID).
			Where("id IN (?)", bun.In(lineIDs)).
			Exec(ctx); err != nil {
			return err
		}
		for _, line := range lines {
			id := ticket.ID
			line.TicketID = &id
		}
		ticket.Lines = lines

		if order.Status == entity.OrderOpen {
			order.Status = entity.OrderInPreparation
			order.UpdatedAt = now
			if _, err := tx.NewUpdate().Model(order).
				Column("status", "updated_at").
				WherePK().
				Exec(ctx); err != nil {
				return err
			}
		}

		_, _, err = orderrepo.RecomputeTx(ctx, tx, order)
		return err
	})
	if err != nil {
		if !isBusinessErr(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dispatch failed")
		}
		return nil, nil, err
	}
	return ticket, order, nil
}

// Advance moves a ticket one step along its status machine. A transition to
// cancelled recomputes the owning order's total, excluding this ticket's
// lines; every other transition leaves the total untouched.
func (r *Repository) Advance(ctx context.Context, establishmentID, ticketID int64, next entity.TicketStatus) (*entity.Ticket, error) {
	ctx, span := repoTracer.Start(ctx, "KitchenRepository.Advance", trace.WithAttributes(
		attribute.Int64("ticket.id", ticketID),
		attribute.String("ticket.status", string(next)),
	))
	defer span.End()

	ticket := new(entity.Ticket)
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Peek at the ticket to learn its order, then take the order lock
		// first; the ticket row is re-read under it.
		err := tx.NewSelect().Model(ticket).
			Where("t.id = ? AND t.establishment_id = ?", ticketID, establishmentID).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		order, err := orderrepo.LockTx(ctx, tx, establishmentID, ticket.OrderID)
		if err != nil {
			return err
		}

		if err := tx.NewSelect().Model(ticket).
			Where("t.id = ?", ticketID).
			Apply(database.RowLock).
			Scan(ctx); err != nil {
			return err
		}

		if !ticket.Status.CanTransition(next) {
			return ErrBadTransition
		}

		ticket.Status = next
		ticket.UpdatedAt = time.Now().UTC()
		if _, err := tx.NewUpdate().Model(ticket).
			Column("status", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		if next == entity.TicketCancelled {
			if _, _, err := orderrepo.RecomputeTx(ctx, tx, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !isBusinessErr(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "advance failed")
		}
		return nil, err
	}
	return ticket, nil
}

// GetByID fetches a ticket with its member lines.
func (r *Repository) GetByID(ctx context.Context, establishmentID, id int64) (*entity.Ticket, error) {
	ctx, span := repoTracer.Start(ctx, "KitchenRepository.GetByID", trace.WithAttributes(attribute.Int64("ticket.id", id)))
	defer span.End()

	ticket := new(entity.Ticket)
	err := r.reader.NewSelect().Model(ticket).
		Relation("Lines").
		Where("t.id = ? AND t.establishment_id = ?", id, establishmentID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return ticket, nil
}

// Value sums the subtotals of the ticket's member lines without touching
// persisted state.
func (r *Repository) Value(ctx context.Context, establishmentID, ticketID int64) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "KitchenRepository.Value", trace.WithAttributes(attribute.Int64("ticket.id", ticketID)))
	defer span.End()

	exists, err := r.reader.NewSelect().
		Model((*entity.Ticket)(nil)).
		Where("id = ? AND establishment_id = ?", ticketID, establishmentID).
		Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}

	var sum int64
	err = r.reader.NewSelect().
		ColumnExpr("COALESCE(SUM(subtotal_cents), 0)").
		TableExpr("order_lines").
		Where("ticket_id = ?", ticketID).
		Scan(ctx, &sum)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sum failed")
		return 0, err
	}
	return sum, nil
}

// Board lists the establishment's tickets in the given statuses, oldest first,
// the way the kitchen works through them. Empty statuses means the active set.
func (r *Repository) Board(ctx context.Context, establishmentID int64, statuses []entity.TicketStatus) ([]*entity.Ticket, error) {
	ctx, span := repoTracer.Start(ctx, "KitchenRepository.Board")
	defer span.End()

	if len(statuses) == 0 {
		statuses = []entity.TicketStatus{entity.TicketAwaiting, entity.TicketInPreparation, entity.TicketReady}
	}

	var tickets []*entity.Ticket
	err := r.reader.NewSelect().Model(&tickets).
		Relation("Lines").
		Where("t.establishment_id = ?", establishmentID).
		Where("t.status IN (?)", bun.In(statuses)).
		Order("t.created_at ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return tickets, nil
}

func isBusinessErr(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBadTransition) ||
		errors.Is(err, orderrepo.ErrNotFound) ||
		errors.Is(err, orderrepo.ErrLineNotFound) ||
		errors.Is(err, orderrepo.ErrLineWrongOrder) ||
		errors.Is(err, orderrepo.ErrOrderNotMutable) ||
		errors.Is(err, orderrepo.ErrLineDispatched)
}
