package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zerobertocosta/Karibu/internal/dto"
	"github.com/zerobertocosta/Karibu/internal/entity"
	"github.com/zerobertocosta/Karibu/internal/presentation/http/response"
	service "github.com/zerobertocosta/Karibu/internal/service/order"
	"github.com/zerobertocosta/Karibu/internal/transport/http/middleware"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/zerobertocosta/Karibu/transport/http/order")

// Handler exposes the order lifecycle over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes under the authenticated API group.
func Register(g *echo.Group, h *Handler) {
	orders := g.Group("/orders")
	orders.POST("", h.open)
	orders.GET("/:id", h.getByID)
	orders.POST("/:id/lines", h.addLine)
	orders.POST("/:id/recompute", h.recompute)
	orders.POST("/:id/close", h.close)
	g.PATCH("/lines/:id", h.updateLine)
	g.DELETE("/lines/:id", h.removeLine)
	g.GET("/tables/:id/order", h.openByTable)
}

func (h *Handler) open(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		TableID int64 `json:"table_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.TableID == 0 {
		return b.WithError(errorbank.BadRequest("table_id is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.open", trace.WithAttributes(attribute.Int64("table.id", payload.TableID)))
	defer span.End()

	order, err := h.svc.Open(ctx, actor, payload.TableID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(order)).Build()
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

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, actor, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) openByTable(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	tableID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.openByTable", trace.WithAttributes(attribute.Int64("table.id", tableID)))
	defer span.End()

	order, err := h.svc.OpenByTable(ctx, actor, tableID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) addLine(c echo.Context) error {
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
		MenuItemID int64  `json:"menu_item_id"`
		Quantity   int    `json:"quantity"`
		Notes      string `json:"notes"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.MenuItemID == 0 {
		return b.WithError(errorbank.BadRequest("menu_item_id is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.addLine", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("menu_item.id", payload.MenuItemID),
	))
	defer span.End()

	line, err := h.svc.AddLine(ctx, actor, orderID, payload.MenuItemID, payload.Quantity, payload.Notes)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(lineToDTO(line)).Build()
}

func (h *Handler) updateLine(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateLine", trace.WithAttributes(attribute.Int64("line.id", lineID)))
	defer span.End()

	line, err := h.svc.UpdateLineQuantity(ctx, actor, lineID, payload.Quantity)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(lineToDTO(line)).Build()
}

func (h *Handler) removeLine(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.removeLine", trace.WithAttributes(attribute.Int64("line.id", lineID)))
	defer span.End()

	if err := h.svc.RemoveLine(ctx, actor, lineID); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) recompute(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.recompute", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	total, changed, err := h.svc.RecomputeTotal(ctx, actor, orderID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]any{
		"order_id":    orderID,
		"total_cents": total,
		"changed":     changed,
	}).Build()
}

func (h *Handler) close(c echo.Context) error {
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
		TipCents *int64 `json:"tip_cents"`
		Notes    string `json:"notes"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.close", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	order, err := h.svc.Close(ctx, actor, orderID, payload.TipCents, payload.Notes)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func toDTO(order *entity.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:           order.ID,
		TableID:      order.TableID,
		Status:       string(order.Status),
		TotalCents:   order.TotalCents,
		TipCents:     order.TipCents,
		ClosingNotes: order.ClosingNotes,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	for _, line := range order.Lines {
		resp.Lines = append(resp.Lines, lineToDTO(line))
	}
	return resp
}

func lineToDTO(line *entity.OrderLine) dto.OrderLineResponse {
	resp := dto.OrderLineResponse{
		ID:             line.ID,
		OrderID:        line.OrderID,
		MenuItemID:     line.MenuItemID,
		MenuItemName:   line.MenuItemName,
		Quantity:       line.Quantity,
		UnitPriceCents: line.UnitPriceCents,
		SubtotalCents:  line.SubtotalCents,
		Notes:          line.Notes,
		TicketID:       line.TicketID,
	}
	if line.Ticket != nil {
		resp.TicketStatus = string(line.Ticket.Status)
	}
	return resp
}
