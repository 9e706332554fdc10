package table

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
	service "github.com/zerobertocosta/Karibu/internal/service/table"
	"github.com/zerobertocosta/Karibu/internal/transport/http/middleware"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/zerobertocosta/Karibu/transport/http/table")

// Handler exposes floor management over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a table Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes under the authenticated API group.
func Register(g *echo.Group, h *Handler) {
	tables := g.Group("/tables")
	tables.POST("", h.create)
	tables.GET("", h.list)
	tables.GET("/:id", h.getByID)
	tables.POST("/:id/status", h.updateStatus)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Number   string `json:"number"`
		Capacity int    `json:"capacity"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.create", trace.WithAttributes(attribute.String("table.number", payload.Number)))
	defer span.End()

	table, err := h.svc.Create(ctx, actor, payload.Number, payload.Capacity)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(table)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.list")
	defer span.End()

	tables, err := h.svc.List(ctx, actor)
	if err != nil {
		return b.WithError(err).Build()
	}

	resp := make([]dto.TableResponse, 0, len(tables))
	for _, table := range tables {
		resp = append(resp, toDTO(table))
	}
	return b.WithData(resp).Build()
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

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.getByID", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table, err := h.svc.Get(ctx, actor, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(table)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
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

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.updateStatus", trace.WithAttributes(
		attribute.Int64("table.id", id),
		attribute.String("table.status", payload.Status),
	))
	defer span.End()

	table, err := h.svc.UpdateStatus(ctx, actor, id, entity.TableStatus(payload.Status))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(table)).Build()
}

func toDTO(table *entity.Table) dto.TableResponse {
	return dto.TableResponse{
		ID:          table.ID,
		Number:      table.Number,
		Capacity:    table.Capacity,
		Status:      string(table.Status),
		Description: table.Description,
		CreatedAt:   table.CreatedAt,
	}
}
