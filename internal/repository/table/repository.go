package table

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

var repoTracer = otel.Tracer("github.com/zerobertocosta/Karibu/repository/table")

// ErrNotFound is returned when the table is missing or belongs to another
// establishment.
var ErrNotFound = errors.New("table not found")

// ErrDuplicateNumber is returned when the table number is taken within the
// establishment.
var ErrDuplicateNumber = errors.New("table number already exists")

// Repository encapsulates access to the floor plan.
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

// Create persists a new table after checking the per-establishment number.
func (r *Repository) Create(ctx context.Context, table *entity.Table) error {
	ctx, span := repoTracer.Start(ctx, "TableRepository.Create", trace.WithAttributes(attribute.String("table.number", table.Number)))
	defer span.End()

	return r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*entity.Table)(nil)).
			Where("establishment_id = ? AND number = ?", table.EstablishmentID, table.Number).
			Exists(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "uniqueness check failed")
			return err
		}
		if exists {
			return ErrDuplicateNumber
		}

		if table.Status == "" {
			table.Status = entity.TableFree
		}
		now := time.Now().UTC()
		table.CreatedAt = now
		table.UpdatedAt = now

		if _, err := tx.NewInsert().Model(table).Exec(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert failed")
			return err
		}
		return nil
	})
}

// GetByID fetches a table scoped to the establishment.
func (r *Repository) GetByID(ctx context.Context, establishmentID, id int64) (*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.GetByID", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table := new(entity.Table)
	err := r.reader.NewSelect().Model(table).
		Where("id = ? AND establishment_id = ?", id, establishmentID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return table, nil
}

// List returns the establishment's tables ordered by number.
func (r *Repository) List(ctx context.Context, establishmentID int64) ([]*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.List")
	defer span.End()

	var tables []*entity.Table
	err := r.reader.NewSelect().Model(&tables).
		Where("establishment_id = ?", establishmentID).
		Order("number ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return tables, nil
}

// UpdateStatus mutates the floor status of a table.
func (r *Repository) UpdateStatus(ctx context.Context, establishmentID, id int64, status entity.TableStatus) (*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.UpdateStatus", trace.WithAttributes(
		attribute.Int64("table.id", id),
		attribute.String("table.status", string(status)),
	))
	defer span.End()

	table := new(entity.Table)
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(table).
			Where("id = ? AND establishment_id = ?", id, establishmentID).
			Apply(database.RowLock).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		table.Status = status
		table.UpdatedAt = time.Now().UTC()
		_, err = tx.NewUpdate().Model(table).
			Column("status", "updated_at").
			WherePK().
			Exec(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
		}
		return nil, err
	}
	return table, nil
}
