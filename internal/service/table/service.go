package table

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/entity"
	repo "github.com/zerobertocosta/Karibu/internal/repository/table"
	"github.com/zerobertocosta/Karibu/internal/tenant"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/zerobertocosta/Karibu/service/table")

// TableStore is the persistence surface for dining tables.
type TableStore interface {
	Create(ctx context.Context, table *entity.Table) error
	GetByID(ctx context.Context, establishmentID, id int64) (*entity.Table, error)
	List(ctx context.Context, establishmentID int64) ([]*entity.Table, error)
	UpdateStatus(ctx context.Context, establishmentID, id int64, status entity.TableStatus) (*entity.Table, error)
}

// Service manages the dining room layout.
type Service struct {
	store  TableStore
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Repository, p.Logger)
}

func newService(store TableStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create registers a table. Numbers are unique per establishment.
func (s *Service) Create(ctx context.Context, actor tenant.Context, number string, capacity int) (*entity.Table, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, errorbank.BadRequest("table number is required")
	}
	if capacity <= 0 {
		return nil, errorbank.BadRequest("capacity must be positive")
	}
	ctx, span := serviceTracer.Start(ctx, "TableService.Create", trace.WithAttributes(attribute.String("table.number", number)))
	defer span.End()

	table := &entity.Table{
		EstablishmentID: actor.EstablishmentID,
		Number:          number,
		Capacity:        capacity,
		Status:          entity.TableFree,
	}
	if err := s.store.Create(ctx, table); err != nil {
		return nil, s.mapErr(span, err)
	}
	return table, nil
}

// Get fetches a single table.
func (s *Service) Get(ctx context.Context, actor tenant.Context, tableID int64) (*entity.Table, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "TableService.Get", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	table, err := s.store.GetByID(ctx, actor.EstablishmentID, tableID)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return table, nil
}

// List returns the establishment's tables ordered by number.
func (s *Service) List(ctx context.Context, actor tenant.Context) ([]*entity.Table, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "TableService.List")
	defer span.End()

	tables, err := s.store.List(ctx, actor.EstablishmentID)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return tables, nil
}

// UpdateStatus moves a table between free, occupied, reserved and maintenance.
// Occupancy driven by the order lifecycle flows through the order service; this
// covers manual floor management.
func (s *Service) UpdateStatus(ctx context.Context, actor tenant.Context, tableID int64, status entity.TableStatus) (*entity.Table, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, errorbank.BadRequest("unknown table status")
	}
	ctx, span := serviceTracer.Start(ctx, "TableService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("table.id", tableID),
		attribute.String("table.status", string(status)),
	))
	defer span.End()

	table, err := s.store.UpdateStatus(ctx, actor.EstablishmentID, tableID, status)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return table, nil
}

func (s *Service) mapErr(span trace.Span, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("table not found")
	case errors.Is(err, repo.ErrDuplicateNumber):
		return errorbank.Conflict("table number already exists")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Transient("storage failure", errorbank.WithCause(err))
	}
}
