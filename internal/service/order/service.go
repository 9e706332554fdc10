package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/cache"
	"github.com/zerobertocosta/Karibu/internal/config"
	"github.com/zerobertocosta/Karibu/internal/entity"
	menurepo "github.com/zerobertocosta/Karibu/internal/repository/menu"
	repo "github.com/zerobertocosta/Karibu/internal/repository/order"
	"github.com/zerobertocosta/Karibu/internal/tenant"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/zerobertocosta/Karibu/service/order")

// OrderStore is the persistence surface the service drives.
type OrderStore interface {
	Open(ctx context.Context, establishmentID, tableID int64) (*entity.Order, error)
	GetByID(ctx context.Context, establishmentID, id int64) (*entity.Order, error)
	OpenByTable(ctx context.Context, establishmentID, tableID int64) (*entity.Order, error)
	AddLine(ctx context.Context, line *entity.OrderLine) (*entity.OrderLine, error)
	UpdateLineQuantity(ctx context.Context, establishmentID, lineID int64, quantity int) (*entity.OrderLine, error)
	RemoveLine(ctx context.Context, establishmentID, lineID int64) error
	RecomputeTotal(ctx context.Context, establishmentID, orderID int64) (int64, bool, error)
	Close(ctx context.Context, establishmentID, orderID int64, tipCents *int64, notes string) (*entity.Order, error)
}

// MenuCatalog is the price/availability lookup collaborator.
type MenuCatalog interface {
	GetItem(ctx context.Context, establishmentID, id int64) (*entity.MenuItem, error)
}

// Service owns the order lifecycle: opening tabs, line mutation and checkout.
type Service struct {
	orders   OrderStore
	menu     MenuCatalog
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Menu       *menurepo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Repository, p.Menu, p.Cache, p.Config.Cache.DefaultTTL, p.Logger)
}

func newService(orders OrderStore, menu MenuCatalog, store cache.Store, cacheTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		menu:     menu,
		cache:    store,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Open starts a tab for a table and marks the table occupied.
func (s *Service) Open(ctx context.Context, actor tenant.Context, tableID int64) (*entity.Order, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Open", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	order, err := s.orders.Open(ctx, actor.EstablishmentID, tableID)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return order, nil
}

// Get retrieves an order with its lines.
func (s *Service) Get(ctx context.Context, actor tenant.Context, orderID int64) (*entity.Order, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := s.orders.GetByID(ctx, actor.EstablishmentID, orderID)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return order, nil
}

// OpenByTable returns the running order for a table.
func (s *Service) OpenByTable(ctx context.Context, actor tenant.Context, tableID int64) (*entity.Order, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.OpenByTable", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	order, err := s.orders.OpenByTable(ctx, actor.EstablishmentID, tableID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("no open order for this table")
		}
		return nil, s.mapErr(span, err)
	}
	return order, nil
}

// AddLine appends a line to a running order. The menu price is read without
// locking and captured into the line, so later catalog edits never move a tab.
func (s *Service) AddLine(ctx context.Context, actor tenant.Context, orderID, menuItemID int64, quantity int, notes string) (*entity.OrderLine, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, errorbank.BadRequest("quantity must be positive")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.AddLine", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("menu_item.id", menuItemID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	item, err := s.lookupMenuItem(ctx, actor.EstablishmentID, menuItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, errorbank.NotFound("menu item not found")
	}

	line := &entity.OrderLine{
		EstablishmentID: actor.EstablishmentID,
		OrderID:         orderID,
		MenuItemID:      item.ID,
		MenuItemName:    item.Name,
		Quantity:        quantity,
		UnitPriceCents:  item.PriceCents,
		Notes:           notes,
	}
	line, err = s.orders.AddLine(ctx, line)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return line, nil
}

// UpdateLineQuantity changes the quantity of an un-dispatched line.
func (s *Service) UpdateLineQuantity(ctx context.Context, actor tenant.Context, lineID int64, quantity int) (*entity.OrderLine, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, errorbank.BadRequest("quantity must be positive")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateLineQuantity", trace.WithAttributes(attribute.Int64("line.id", lineID)))
	defer span.End()

	line, err := s.orders.UpdateLineQuantity(ctx, actor.EstablishmentID, lineID, quantity)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return line, nil
}

// RemoveLine deletes an un-dispatched line from its order.
func (s *Service) RemoveLine(ctx context.Context, actor tenant.Context, lineID int64) error {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return err
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.RemoveLine", trace.WithAttributes(attribute.Int64("line.id", lineID)))
	defer span.End()

	if err := s.orders.RemoveLine(ctx, actor.EstablishmentID, lineID); err != nil {
		return s.mapErr(span, err)
	}
	return nil
}

// RecomputeTotal re-derives the order total. Redundant calls change nothing.
func (s *Service) RecomputeTotal(ctx context.Context, actor tenant.Context, orderID int64) (int64, bool, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return 0, false, err
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.RecomputeTotal", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	total, changed, err := s.orders.RecomputeTotal(ctx, actor.EstablishmentID, orderID)
	if err != nil {
		return 0, false, s.mapErr(span, err)
	}
	return total, changed, nil
}

// Close checks out the order, recording the tip and closing notes.
func (s *Service) Close(ctx context.Context, actor tenant.Context, orderID int64, tipCents *int64, notes string) (*entity.Order, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	if tipCents != nil && *tipCents < 0 {
		return nil, errorbank.BadRequest("tip must not be negative")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Close", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := s.orders.Close(ctx, actor.EstablishmentID, orderID, tipCents, notes)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return order, nil
}

func (s *Service) lookupMenuItem(ctx context.Context, establishmentID, menuItemID int64) (*entity.MenuItem, error) {
	key := fmt.Sprintf("menu:%d:%d", establishmentID, menuItemID)
	if s.cache != nil {
		if bytes, err := s.cache.Get(ctx, key); err == nil {
			var item entity.MenuItem
			if err := json.Unmarshal(bytes, &item); err == nil {
				return &item, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("menu cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	item, err := s.menu.GetItem(ctx, establishmentID, menuItemID)
	if err != nil {
		if errors.Is(err, menurepo.ErrNotFound) {
			return nil, errorbank.NotFound("menu item not found")
		}
		return nil, errorbank.Transient("failed to load menu item", errorbank.WithCause(err))
	}

	if s.cache != nil {
		if bytes, err := json.Marshal(item); err == nil {
			if err := s.cache.Set(ctx, key, bytes, s.cacheTTL); err != nil && s.logger != nil {
				s.logger.Warn("menu cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return item, nil
}

// mapErr turns repository sentinels into the stable error kinds callers see.
// Anything unexpected is a transient storage failure, safe to retry.
func (s *Service) mapErr(span trace.Span, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("order not found")
	case errors.Is(err, repo.ErrLineNotFound):
		return errorbank.NotFound("order line not found")
	case errors.Is(err, repo.ErrTableNotFound):
		return errorbank.NotFound("table not found")
	case errors.Is(err, repo.ErrOpenOrderExists):
		return errorbank.Conflict("table already has an open order")
	case errors.Is(err, repo.ErrOrderNotMutable):
		return errorbank.InvalidState("order is not open")
	case errors.Is(err, repo.ErrLineDispatched):
		return errorbank.InvalidState("line already dispatched; cancel its ticket instead")
	case errors.Is(err, repo.ErrTicketsOutstanding):
		return errorbank.InvalidState("order still has tickets in the kitchen")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Transient("storage failure", errorbank.WithCause(err))
	}
}
