package order

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
)

var repoTracer = otel.Tracer("github.com/zerobertocosta/Karibu/repository/order")

var (
	// ErrNotFound is returned when the order is missing or belongs to another
	// establishment.
	ErrNotFound = errors.New("order not found")
	// ErrLineNotFound is returned when the order line is missing or belongs
	// to another establishment.
	ErrLineNotFound = errors.New("order line not found")
	// ErrLineWrongOrder is returned when a line exists in the establishment
	// but is attached to a different order than the one being worked on.
	ErrLineWrongOrder = errors.New("order line belongs to a different order")
	// ErrTableNotFound is returned when the table is missing or belongs to
	// another establishment.
	ErrTableNotFound = errors.New("table not found")
	// ErrOpenOrderExists is returned when the table already has an open order.
	ErrOpenOrderExists = errors.New("table already has an open order")
	// ErrOrderNotMutable is returned when the order is closed or cancelled.
	ErrOrderNotMutable = errors.New("order is not open")
	// ErrLineDispatched is returned when a dispatched line is edited or removed.
	ErrLineDispatched = errors.New("order line already dispatched")
	// ErrTicketsOutstanding is returned when an order is closed while a ticket
	// is still moving through the kitchen.
	ErrTicketsOutstanding = errors.New("order has undelivered tickets")
)

// Repository owns orders and their lines, including total recomputation. All
// mutations run inside a transaction that first locks the order row, which
// linearizes concurrent writers per order without any global lock.
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

// LockTx loads the order row FOR UPDATE inside tx, scoped to the
// establishment. Every per-order critical section starts here.
func LockTx(ctx context.Context, tx bun.IDB, establishmentID, orderID int64) (*entity.Order, error) {
	order := new(entity.Order)
	err := tx.NewSelect().Model(order).
		Where("o.id = ? AND o.establishment_id = ?", orderID, establishmentID).
		Apply(database.RowLock).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RecomputeTx re-derives the order total inside tx: the sum of subtotals over
// lines whose ticket is null or not cancelled, plus tip. It persists only when
// the value changed and reports whether a write happened, so redundant calls
// are observably idempotent. The caller must hold the order lock.
func RecomputeTx(ctx context.Context, tx bun.IDB, order *entity.Order) (int64, bool, error) {
	var sum int64
	err := tx.NewSelect().
		ColumnExpr("COALESCE(SUM(l.subtotal_cents), 0)").
		TableExpr("order_lines AS l").
		Join("LEFT JOIN tickets AS t ON t.id = l.ticket_id").
		Where("l.order_id = ?", order.ID).
		Where("l.ticket_id IS NULL OR t.status != ?", entity.TicketCancelled).
		Scan(ctx, &sum)
	if err != nil {
		return 0, false, err
	}

	total := sum
	if order.TipCents != nil {
		total += *order.TipCents
	}
	if total == order.TotalCents {
		return total, false, nil
	}

	order.TotalCents = total
	order.UpdatedAt = time.Now().UTC()
	_, err = tx.NewUpdate().Model(order).
		Column("total_cents", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return 0, false, err
	}
	return total, true, nil
}

// Open starts a tab for a table. The table row is locked first so two
// concurrent opens against the same table serialize; the loser sees the
// winner's open order and fails with ErrOpenOrderExists.
func (r *Repository) Open(ctx context.Context, establishmentID, tableID int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Open", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	order := new(entity.Order)
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		table := new(entity.Table)
		err := tx.NewSelect().Model(table).
			Where("id = ? AND establishment_id = ?", tableID, establishmentID).
			Apply(database.RowLock).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTableNotFound
		}
		if err != nil {
			return err
		}

		exists, err := tx.NewSelect().
			Model((*entity.Order)(nil)).
			Where("table_id = ? AND establishment_id = ? AND status IN (?, ?)",
				tableID, establishmentID, entity.OrderOpen, entity.OrderInPreparation).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrOpenOrderExists
		}

		now := time.Now().UTC()
		order.EstablishmentID = establishmentID
		order.TableID = &tableID
		order.Status = entity.OrderOpen
		order.TotalCents = 0
		order.CreatedAt = now
		order.UpdatedAt = now
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}

		table.Status = entity.TableOccupied
		table.UpdatedAt = now
		_, err = tx.NewUpdate().Model(table).
			Column("status", "updated_at").
			WherePK().
			Exec(ctx)
		return err
	})
	if err != nil {
		if !isBusinessErr(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "open failed")
		}
		return nil, err
	}
	return order, nil
}

// GetByID fetches an order with its lines and their tickets.
func (r *Repository) GetByID(ctx context.Context, establishmentID, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).
		Relation("Lines").
		Relation("Lines.Ticket").
		Where("o.id = ? AND o.establishment_id = ?", id, establishmentID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// OpenByTable returns the currently running order for a table, if any.
func (r *Repository) OpenByTable(ctx context.Context, establishmentID, tableID int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.OpenByTable", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).
		Relation("Lines").
		Relation("Lines.Ticket").
		Where("o.table_id = ? AND o.establishment_id = ? AND o.status IN (?, ?)",
			tableID, establishmentID, entity.OrderOpen, entity.OrderInPreparation).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// AddLine appends a line to a running order and recomputes the total. The
// caller supplies the captured unit price; the subtotal is derived here.
func (r *Repository) AddLine(ctx context.Context, line *entity.OrderLine) (*entity.OrderLine, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AddLine", trace.WithAttributes(
		attribute.Int64("order.id", line.OrderID),
		attribute.Int64("menu_item.id", line.MenuItemID),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		order, err := LockTx(ctx, tx, line.EstablishmentID, line.OrderID)
		if err != nil {
			return err
		}
		if !order.Status.Mutable() {
			return ErrOrderNotMutable
		}

		line.SubtotalCents = int64(line.Quantity) * line.UnitPriceCents
		line.CreatedAt = time.Now().UTC()
		if _, err := tx.NewInsert().Model(line).Exec(ctx); err != nil {
			return err
		}

		_, _, err = RecomputeTx(ctx, tx, order)
		return err
	})
	if err != nil {
		if !isBusinessErr(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "add line failed")
		}
		return nil, err
	}
	return line, nil
}

// UpdateLineQuantity changes the quantity of an un-dispatched line, re-deriving
// its subtotal from the captured unit price.
func (r *Repository) UpdateLineQuantity(ctx context.Context, establishmentID, lineID int64, quantity int) (*entity.OrderLine, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateLineQuantity", trace.WithAttributes(
		attribute.Int64("line.id", lineID),
		attribute.Int("line.quantity", quantity),
	))
	defer span.End()

	line := new(entity.OrderLine)
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// peek without locking to learn the order, then lock the order row
		// first; line locks always nest inside the order lock
		orderID, err := r.peekLineOrderTx(ctx, tx, establishmentID, lineID)
		if err != nil {
			return err
		}
		order, err := LockTx(ctx, tx, establishmentID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.Mutable() {
			return ErrOrderNotMutable
		}

		line, err = r.lockLineTx(ctx, tx, establishmentID, lineID)
		if err != nil {
			return err
		}
		if line.Dispatched() {
			return ErrLineDispatched
		}

		line.Quantity = quantity
		line.SubtotalCents = int64(quantity) * line.UnitPriceCents
		if _, err := tx.NewUpdate().Model(line).
			Column("quantity", "subtotal_cents").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		_, _, err = RecomputeTx(ctx, tx, order)
		return err
	})
	if err != nil {
		if !isBusinessErr(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update line failed")
		}
		return nil, err
	}
	return line, nil
}

// RemoveLine deletes an un-dispatched line and recomputes the total.
func (r *Repository) RemoveLine(ctx context.Context, establishmentID, lineID int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.RemoveLine", trace.WithAttributes(attribute.Int64("line.id", lineID)))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		orderID, err := r.peekLineOrderTx(ctx, tx, establishmentID, lineID)
		if err != nil {
			return err
		}
		order, err := LockTx(ctx, tx, establishmentID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.Mutable() {
			return ErrOrderNotMutable
		}

		line, err := r.lockLineTx(ctx, tx, establishmentID, lineID)
		if err != nil {
			return err
		}
		if line.Dispatched() {
			return ErrLineDispatched
		}

		if _, err := tx.NewDelete().Model(line).WherePK().Exec(ctx); err != nil {
			return err
		}

		_, _, err = RecomputeTx(ctx, tx, order)
		return err
	})
	if err != nil && !isBusinessErr(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remove line failed")
	}
	return err
}

// RecomputeTotal re-derives and persists the order total. Safe to call
// redundantly; the returned flag reports whether anything was written.
func (r *Repository) RecomputeTotal(ctx context.Context, establishmentID, orderID int64) (int64, bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.RecomputeTotal", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var (
		total   int64
		changed bool
	)
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		order, err := LockTx(ctx, tx, establishmentID, orderID)
		if err != nil {
			return err
		}
		total, changed, err = RecomputeTx(ctx, tx, order)
		return err
	})
	if err != nil {
		if !isBusinessErr(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "recompute failed")
		}
		return 0, false, err
	}
	return total, changed, nil
}

// Close checks out the order: every ticket must be delivered or cancelled.
// The tip lands in the final total and the table is freed.
func (r *Repository) Close(ctx context.Context, establishmentID, orderID int64, tipCents *int64, notes string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Close", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var order *entity.Order
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		order, err = LockTx(ctx, tx, establishmentID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.Mutable() {
			return ErrOrderNotMutable
		}

		outstanding, err := tx.NewSelect().
			Model((*entity.Ticket)(nil)).
			Where("order_id = ? AND status IN (?, ?, ?)",
				orderID, entity.TicketAwaiting, entity.TicketInPreparation, entity.TicketReady).
			Exists(ctx)
		if err != nil {
			return err
		}
		if outstanding {
			return ErrTicketsOutstanding
		}

		order.Status = entity.OrderClosed
		order.TipCents = tipCents
		order.ClosingNotes = notes
		order.UpdatedAt = time.Now().UTC()
		if _, err := tx.NewUpdate().Model(order).
			Column("status", "tip_cents", "closing_notes", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		if _, _, err := RecomputeTx(ctx, tx, order); err != nil {
			return err
		}

		if order.TableID != nil {
			_, err = tx.NewUpdate().
				Model((*entity.Table)(nil)).
				Set("status = ?", entity.TableFree).
				Set("updated_at = ?", time.Now().UTC()).
				Where("id = ? AND establishment_id = ?", *order.TableID, establishmentID).
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !isBusinessErr(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "close failed")
		}
		return nil, err
	}
	return order, nil
}

// peekLineOrderTx reads a line's order id without taking a lock, so callers
// can acquire the order lock before locking the line itself.
func (r *Repository) peekLineOrderTx(ctx context.Context, tx bun.Tx, establishmentID, lineID int64) (int64, error) {
	var orderID int64
	err := tx.NewSelect().Model((*entity.OrderLine)(nil)).
		Column("l.order_id").
		Where("l.id = ? AND l.establishment_id = ?", lineID, establishmentID).
		Scan(ctx, &orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrLineNotFound
	}
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

func (r *Repository) lockLineTx(ctx context.Context, tx bun.Tx, establishmentID, lineID int64) (*entity.OrderLine, error) {
	line := new(entity.OrderLine)
	err := tx.NewSelect().Model(line).
		Where("l.id = ? AND l.establishment_id = ?", lineID, establishmentID).
		Apply(database.RowLock).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}
	return line, nil
}

func isBusinessErr(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrLineNotFound) ||
		errors.Is(err, ErrLineWrongOrder) ||
		errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrOpenOrderExists) ||
		errors.Is(err, ErrOrderNotMutable) ||
		errors.Is(err, ErrLineDispatched) ||
		errors.Is(err, ErrTicketsOutstanding)
}
