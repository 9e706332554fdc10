package menu

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zerobertocosta/Karibu/internal/database"
	"github.com/zerobertocosta/Karibu/internal/entity"
)

var repoTracer = otel.Tracer("github.com/zerobertocosta/Karibu/repository/menu")

// ErrNotFound is returned when the menu item is missing or belongs to another
// establishment.
var ErrNotFound = errors.New("menu item not found")

// Repository is the read-only view onto the menu catalog. The catalog itself
// is maintained by the adjacent admin service; the engine only looks up price
// and availability.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires the catalog read model.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// GetItem fetches a menu item scoped to the establishment.
func (r *Repository) GetItem(ctx context.Context, establishmentID, id int64) (*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "MenuRepository.GetItem", trace.WithAttributes(attribute.Int64("menu_item.id", id)))
	defer span.End()

	item := new(entity.MenuItem)
	err := r.reader.NewSelect().Model(item).
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
	return item, nil
}

// ListItems returns the establishment's catalog grouped by category order.
func (r *Repository) ListItems(ctx context.Context, establishmentID int64) ([]*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "MenuRepository.ListItems")
	defer span.End()

	var items []*entity.MenuItem
	err := r.reader.NewSelect().Model(&items).
		Where("establishment_id = ?", establishmentID).
		Order("category_id ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}
