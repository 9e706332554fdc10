package waitercall

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
	service "github.com/zerobertocosta/Karibu/internal/service/waitercall"
	"github.com/zerobertocosta/Karibu/internal/transport/http/middleware"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/zerobertocosta/Karibu/transport/http/waitercall")

// Handler exposes the assistance workflow over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a waiter call Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes under the authenticated API group.
func Register(g *echo.Group, h *Handler) {
	calls := g.Group("/waiter-calls")
	calls.POST("", h.create)
	calls.GET("", h.list)
	calls.POST("/:id/resolve", h.resolve)
}

func (h *Handler) create(c echo.Context) error {
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

	ctx, span := httpTracer.Start(c.Request().Context(), "waiterCalls.create", trace.WithAttributes(attribute.Int64("table.id", payload.TableID)))
	defer span.End()

	call, err := h.svc.Call(ctx, actor, payload.TableID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(call)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	includeResolved := c.QueryParam("include_resolved") == "true"

	ctx, span := httpTracer.Start(c.Request().Context(), "waiterCalls.list")
	defer span.End()

	calls, err := h.svc.List(ctx, actor, includeResolved)
	if err != nil {
		return b.WithError(err).Build()
	}

	resp := make([]dto.WaiterCallResponse, 0, len(calls))
	for _, call := range calls {
		resp = append(resp, toDTO(call))
	}
	return b.WithData(resp).Build()
}

func (h *Handler) resolve(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "waiterCalls.resolve", trace.WithAttributes(attribute.Int64("call.id", id)))
	defer span.End()

	call, err := h.svc.Resolve(ctx, actor, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(call)).Build()
}

func toDTO(call *entity.WaiterCall) dto.WaiterCallResponse {
	resp := dto.WaiterCallResponse{
		ID:         call.ID,
		TableID:    call.TableID,
		Status:     string(call.Status),
		CreatedAt:  call.CreatedAt,
		ResolvedAt: call.ResolvedAt,
	}
	if call.Table != nil {
		resp.TableNumber = call.Table.Number
	}
	return resp
}
