package kitchen

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zerobertocosta/Karibu/internal/dto"
	"github.com/zerobertocosta/Karibu/internal/entity"
	"github.com/zerobertocosta/Karibu/internal/presentation/http/response"
	service "github.com/zerobertocosta/Karibu/internal/service/kitchen"
	"github.com/zerobertocosta/Karibu/internal/transport/http/middleware"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/zerobertocosta/Karibu/transport/http/kitchen")

// Handler exposes ticket dispatch and progression over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a kitchen Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes under the authenticated API group.
func Register(g *echo.Group, h *Handler) {
	g.POST("/orders/:id/dispatch", h.dispatch)
	tickets := g.Group("/tickets")
	tickets.GET("", h.board)
	tickets.GET("/:id", h.getByID)
	tickets.GET("/:id/value", h.value)
	tickets.POST("/:id/status", h.advance)
}

func (h *Handler) dispatch(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload struct {
		LineIDs      []int64 `json:"line_ids"`
		KitchenNotes string  `json:"kitchen_notes"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "kitchen.dispatch", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int("lines.count", len(payload.LineIDs)),
	))
	defer span.End()

	ticket, err := h.svc.Dispatch(ctx, actor, orderID, payload.LineIDs, payload.KitchenNotes)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(ticket)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "kitchen.getByID", trace.WithAttributes(attribute.Int64("ticket.id", id)))
	defer span.End()

	ticket, err := h.svc.Get(ctx, actor, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(ticket)).Build()
}

func (h *Handler) advance(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Status == "" {
		return b.WithError(errorbank.BadRequest("status is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "kitchen.advance", trace.WithAttributes(
		attribute.Int64("ticket.id", id),
		attribute.String("ticket.status", payload.Status),
	))
	defer span.End()

	ticket, err := h.svc.Advance(ctx, actor, id, entity.TicketStatus(payload.Status))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(ticket)).Build()
}

func (h *Handler) value(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "kitchen.value", trace.WithAttributes(attribute.Int64("ticket.id", id)))
	defer span.End()

	value, err := h.svc.Value(ctx, actor, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.TicketValueResponse{TicketID: id, ValueCents: value}).Build()
}

func (h *Handler) board(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var statuses []entity.TicketStatus
	if raw := c.QueryParam("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, entity.TicketStatus(strings.TrimSpace(s)))
		}
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "kitchen.board")
	defer span.End()

	tickets, err := h.svc.Board(ctx, actor, statuses)
	if err != nil {
		return b.WithError(err).Build()
	}

	resp := make([]dto.TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		resp = append(resp, toDTO(ticket))
	}
	return b.WithData(resp).Build()
}

func toDTO(ticket *entity.Ticket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:           ticket.ID,
		OrderID:      ticket.OrderID,
		Status:       string(ticket.Status),
		KitchenNotes: ticket.KitchenNotes,
		ValueCents:   ticket.ValueCents(),
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
	for _, line := range ticket.Lines {
		resp.Lines = append(resp.Lines, dto.OrderLineResponse{
			ID:             line.ID,
			OrderID:        line.OrderID,
			MenuItemID:     line.MenuItemID,
			MenuItemName:   line.MenuItemName,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			SubtotalCents:  line.SubtotalCents,
			Notes:          line.Notes,
			TicketID:       line.TicketID,
		})
	}
	return resp
}
