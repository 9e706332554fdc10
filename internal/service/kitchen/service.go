package kitchen

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
	"github.com/zerobertocosta/Karibu/internal/notifier"
	repo "github.com/zerobertocosta/Karibu/internal/repository/kitchen"
	orderrepo "github.com/zerobertocosta/Karibu/internal/repository/order"
	tablerepo "github.com/zerobertocosta/Karibu/internal/repository/table"
	"github.com/zerobertocosta/Karibu/internal/tenant"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/zerobertocosta/Karibu/service/kitchen")

// KitchenStore is the persistence surface of the dispatch engine.
type KitchenStore interface {
	Dispatch(ctx context.Context, establishmentID, orderID int64, lineIDs []int64, kitchenNotes string) (*entity.Ticket, *entity.Order, error)
	Advance(ctx context.Context, establishmentID, ticketID int64, next entity.TicketStatus) (*entity.Ticket, error)
	GetByID(ctx context.Context, establishmentID, id int64) (*entity.Ticket, error)
	Value(ctx context.Context, establishmentID, ticketID int64) (int64, error)
	Board(ctx context.Context, establishmentID int64, statuses []entity.TicketStatus) ([]*entity.Ticket, error)
}

// TableDirectory resolves table numbers for display payloads.
type TableDirectory interface {
	GetByID(ctx context.Context, establishmentID, id int64) (*entity.Table, error)
}

// Service drives the kitchen workflow: dispatching tickets, advancing them
// through their status machine, and notifying displays.
type Service struct {
	store     KitchenStore
	tables    TableDirectory
	publisher notifier.Publisher
	logger    *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Tables     *tablerepo.Repository
	Publisher  notifier.Publisher
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Repository, p.Tables, p.Publisher, p.Logger)
}

func newService(store KitchenStore, tables TableDirectory, publisher notifier.Publisher, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		tables:    tables,
		publisher: publisher,
		logger:    logger,
	}
}

// Dispatch snapshots the given un-dispatched lines into a new awaiting ticket
// and notifies the establishment's kitchen displays. The notification goes out
// only after the transaction committed and never blocks or fails the call.
func (s *Service) Dispatch(ctx context.Context, actor tenant.Context, orderID int64, lineIDs []int64, kitchenNotes string) (*entity.Ticket, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	if len(lineIDs) == 0 {
		return nil, errorbank.BadRequest("at least one line is required")
	}
	ctx, span := serviceTracer.Start(ctx, "KitchenService.Dispatch", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int("lines.count", len(lineIDs)),
	))
	defer span.End()

	ticket, order, err := s.store.Dispatch(ctx, actor.EstablishmentID, orderID, lineIDs, kitchenNotes)
	if err != nil {
		return nil, s.mapErr(span, err)
	}

	s.notifyDispatched(ctx, actor.EstablishmentID, ticket, order)
	return ticket, nil
}

// Advance moves a ticket one step along awaiting -> in_preparation -> ready ->
// delivered, or cancels it from any non-terminal state. Cancellation excludes
// the ticket's lines from the order total.
func (s *Service) Advance(ctx context.Context, actor tenant.Context, ticketID int64, next entity.TicketStatus) (*entity.Ticket, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, errorbank.BadRequest("unknown ticket status")
	}
	ctx, span := serviceTracer.Start(ctx, "KitchenService.Advance", trace.WithAttributes(
		attribute.Int64("ticket.id", ticketID),
		attribute.String("ticket.status", string(next)),
	))
	defer span.End()

	ticket, err := s.store.Advance(ctx, actor.EstablishmentID, ticketID, next)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return ticket, nil
}

// Get fetches a ticket with its member lines.
func (s *Service) Get(ctx context.Context, actor tenant.Context, ticketID int64) (*entity.Ticket, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "KitchenService.Get", trace.WithAttributes(attribute.Int64("ticket.id", ticketID)))
	defer span.End()

	ticket, err := s.store.GetByID(ctx, actor.EstablishmentID, ticketID)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return ticket, nil
}

// Value returns the ticket's worth: the sum of its member line subtotals.
// A pure read for display and receipt rendering.
func (s *Service) Value(ctx context.Context, actor tenant.Context, ticketID int64) (int64, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return 0, err
	}
	ctx, span := serviceTracer.Start(ctx, "KitchenService.Value", trace.WithAttributes(attribute.Int64("ticket.id", ticketID)))
	defer span.End()

	value, err := s.store.Value(ctx, actor.EstablishmentID, ticketID)
	if err != nil {
		return 0, s.mapErr(span, err)
	}
	return value, nil
}

// Board lists the establishment's tickets for the kitchen display.
func (s *Service) Board(ctx context.Context, actor tenant.Context, statuses []entity.TicketStatus) ([]*entity.Ticket, error) {
	if err := tenant.Authorize(actor, actor.EstablishmentID); err != nil {
		return nil, err
	}
	for _, status := range statuses {
		if !status.Valid() {
			return nil, errorbank.BadRequest("unknown ticket status")
		}
	}
	ctx, span := serviceTracer.Start(ctx, "KitchenService.Board")
	defer span.End()

	tickets, err := s.store.Board(ctx, actor.EstablishmentID, statuses)
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return tickets, nil
}

// notifyDispatched fires the kitchen-display broadcast for a committed ticket.
// Publish failures are logged and swallowed: delivery is best-effort and must
// never surface to the dispatch caller. The publish happens on the calling
// goroutine so tickets from the same order reach the channel in dispatch
// order; Publisher implementations are required not to block.
func (s *Service) notifyDispatched(ctx context.Context, establishmentID int64, ticket *entity.Ticket, order *entity.Order) {
	if s.publisher == nil {
		return
	}

	tableNumber := ""
	if order != nil && order.TableID != nil && s.tables != nil {
		if table, err := s.tables.GetByID(ctx, establishmentID, *order.TableID); err == nil {
			tableNumber = table.Number
		}
	}

	payload := notifier.FromTicket(ticket, tableNumber)
	channel := notifier.ChannelKey(establishmentID)

	if err := s.publisher.Publish(context.WithoutCancel(ctx), channel, payload); err != nil {
		if s.logger != nil {
			s.logger.Warn("kitchen notification failed",
				zap.Int64("ticket_id", ticket.ID),
				zap.String("channel", channel),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) mapErr(span trace.Span, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("ticket not found")
	case errors.Is(err, repo.ErrBadTransition):
		return errorbank.InvalidState("status not reachable from the ticket's current state")
	case errors.Is(err, orderrepo.ErrNotFound):
		return errorbank.NotFound("order not found")
	case errors.Is(err, orderrepo.ErrLineNotFound):
		return errorbank.NotFound("order line not found")
	case errors.Is(err, orderrepo.ErrLineWrongOrder):
		return errorbank.InvalidState("line belongs to a different order")
	case errors.Is(err, orderrepo.ErrOrderNotMutable):
		return errorbank.InvalidState("order is not open")
	case errors.Is(err, orderrepo.ErrLineDispatched):
		return errorbank.InvalidState("line already dispatched")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Transient("storage failure", errorbank.WithCause(err))
	}
}
