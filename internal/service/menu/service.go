package menu

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/zerobertocosta/Karibu/internal/entity"
	repo "github.com/zerobertocosta/Karibu/internal/repository/menu"
	"github.com/zerobertocosta/Karibu/internal/tenant"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/zerobertocosta/Karibu/service/menu")

// Catalog is the read-only menu surface exposed to ordering clients.
type Catalog interface {
	GetItem(ctx context.Context, establishmentID, id int64) (*entity.MenuItem, error)
	ListItems(ctx context.Context, establishmentID int64) ([]*entity.MenuItem, error)
}

// Service serves catalog reads. Catalog writes belong to an adjacent admin
// surface, not this engine.
type Service struct {
	catalog Catalog
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{catalog: p.Repository}
}

// Item fetches a single menu item.
func (s *Service) Item(ctx context.Context, actor tenant.Context, itemID int64) (*entity.MenuItem, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "MenuService.Item", trace.WithAttributes(attribute.Int64("menu_item.id", itemID)))
	defer span.End()

	item, err := s.catalog.GetItem(ctx, actor.EstablishmentID, itemID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("menu item not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("storage failure", errorbank.WithCause(err))
	}
	return item, nil
}

// Items lists the establishment's catalog.
func (s *Service) Items(ctx context.Context, actor tenant.Context) ([]*entity.MenuItem, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "MenuService.Items")
	defer span.End()

	items, err := s.catalog.ListItems(ctx, actor.EstablishmentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Transient("storage failure", errorbank.WithCause(err))
	}
	return items, nil
}
