package waitercall

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/entity"
	repo "github.com/zerobertocosta/Karibu/internal/repository/waitercall"
	"github.com/zerobertocosta/Karibu/internal/tenant"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/zerobertocosta/Karibu/service/waitercall")

// CallStore is the persistence surface for waiter calls.
type CallStore interface {
	Create(ctx context.Context, establishmentID, tableID int64) (*entity.WaiterCall, error)
	Resolve(ctx context.Context, establishmentID, id int64) (*entity.WaiterCall, error)
	List(ctx context.Context, establishmentID int64, includeResolved bool) ([]*entity.WaiterCall, error)
}

// Service handles the table-side assistance workflow.
type Service struct {
	store  CallStore
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

func newService(store CallStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Call registers a pending assistance request for a table. A table carries at
// most one pending call at a time; a second request conflicts.
func (s *Service) Call(ctx context.Context, actor tenant.Context, tableID int64) (*entity.WaiterCall, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "WaiterCallService.Call", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	call, err := s.store.Create(ctx, actor.EstablishmentID, tableID)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return call, nil
}

// Resolve marks a pending call as handled, stamping the resolution time.
func (s *Service) Resolve(ctx context.Context, actor tenant.Context, callID int64) (*entity.WaiterCall, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "WaiterCallService.Resolve", trace.WithAttributes(attribute.Int64("call.id", callID)))
	defer span.End()

	call, err := s.store.Resolve(ctx, actor.EstablishmentID, callID)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return call, nil
}

// List returns the establishment's calls, pending first, newest within each
// group. Resolved calls are included only on request.
func (s *Service) List(ctx context.Context, actor tenant.Context, includeResolved bool) ([]*entity.WaiterCall, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "WaiterCallService.List")
	defer span.End()

	calls, err := s.store.List(ctx, actor.EstablishmentID, includeResolved)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return calls, nil
}

func (s *Service) mapErr(span trace.Span, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("waiter call not found")
	case errors.Is(err, repo.ErrTableNotFound):
		return errorbank.NotFound("table not found")
	case errors.Is(err, repo.ErrPendingExists):
		return errorbank.Conflict("table already has a pending call")
	case errors.Is(err, repo.ErrAlreadyResolved):
		return errorbank.InvalidState("waiter call already resolved")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Transient("storage failure", errorbank.WithCause(err))
	}
}
