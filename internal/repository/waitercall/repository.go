package waitercall

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

var repoTracer = otel.Tracer("github.com/zerobertocosta/Karibu/repository/waitercall")

var (
	// ErrNotFound is returned when the call is missing or belongs to another
	// establishment.
	ErrNotFound = errors.New("waiter call not found")
	// ErrTableNotFound is returned when the table is missing or belongs to
	// another establishment.
	ErrTableNotFound = errors.New("table not found")
	// ErrPendingExists is returned when the table already has a pending call.
	ErrPendingExists = errors.New("table already has a pending call")
	// ErrAlreadyResolved is returned when a resolved call is resolved again.
	ErrAlreadyResolved = errors.New("waiter call already resolved")
)

// Repository owns waiter calls and the at-most-one-pending-per-table rule.
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

// Create opens a pending call for a table. The table row is locked so two
// concurrent calls serialize; the loser sees the winner's pending call. A
// partial unique index on (table_id) WHERE status = 'pending' backs this up
// at the schema level.
func (r *Repository) Create(ctx context.Context, establishmentID, tableID int64) (*entity.WaiterCall, error) {
	ctx, span := repoTracer.Start(ctx, "WaiterCallRepository.Create", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	call := new(entity.WaiterCall)
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

		pending, err := tx.NewSelect().
			Model((*entity.WaiterCall)(nil)).
			Where("table_id = ? AND status = ?", tableID, entity.WaiterCallPending).
			Exists(ctx)
		if err != nil {
			return err
		}
		if pending {
			return ErrPendingExists
		}

		call.EstablishmentID = establishmentID
		call.TableID = tableID
		call.Status = entity.WaiterCallPending
		call.CreatedAt = time.Now().UTC()
		_, err = tx.NewInsert().Model(call).Exec(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrTableNotFound) && !errors.Is(err, ErrPendingExists) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "create failed")
		}
		return nil, err
	}
	return call, nil
}

// Resolve marks a pending call resolved. A resolved call is never re-opened;
// a new call is a new record.
func (r *Repository) Resolve(ctx context.Context, establishmentID, id int64) (*entity.WaiterCall, error) {
	ctx, span := repoTracer.Start(ctx, "WaiterCallRepository.Resolve", trace.WithAttributes(attribute.Int64("call.id", id)))
	defer span.End()

	call := new(entity.WaiterCall)
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(call).
			Where("wc.id = ? AND wc.establishment_id = ?", id, establishmentID).
			Apply(database.RowLock).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if call.Status == entity.WaiterCallResolved {
			return ErrAlreadyResolved
		}

		now := time.Now().UTC()
		call.Status = entity.WaiterCallResolved
		call.ResolvedAt = &now
		_, err = tx.NewUpdate().Model(call).
			Column("status", "resolved_at").
			WherePK().
			Exec(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrAlreadyResolved) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "resolve failed")
		}
		return nil, err
	}
	return call, nil
}

// List returns the establishment's calls, pending first then newest first.
// By default only pending calls are returned.
func (r *Repository) List(ctx context.Context, establishmentID int64, includeResolved bool) ([]*entity.WaiterCall, error) {
	ctx, span := repoTracer.Start(ctx, "WaiterCallRepository.List")
	defer span.End()

	var calls []*entity.WaiterCall
	q := r.reader.NewSelect().Model(&calls).
		Relation("Table").
		Where("wc.establishment_id = ?", establishmentID)
	if !includeResolved {
		q = q.Where("wc.status = ?", entity.WaiterCallPending)
	}

	err := q.Order("wc.status ASC", "wc.created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return calls, nil
}
