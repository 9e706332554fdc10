package menu

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zerobertocosta/Karibu/internal/dto"
	"github.com/zerobertocosta/Karibu/internal/entity"
	"github.com/zerobertocosta/Karibu/internal/presentation/http/response"
	service "github.com/zerobertocosta/Karibu/internal/service/menu"
	"github.com/zerobertocosta/Karibu/internal/transport/http/middleware"
	"github.com/zerobertocosta/Karibu/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/zerobertocosta/Karibu/transport/http/menu")

// Handler exposes catalog reads over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a menu Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes under the authenticated API group.
func Register(g *echo.Group, h *Handler) {
	items := g.Group("/menu-items")
	items.GET("", h.list)
	items.GET("/:id", h.getByID)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	actor, err := middleware.Actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "menuItems.list")
	defer span.End()

	items, err := h.svc.Items(ctx, actor)
	if err != nil {
		return b.WithError(err).Build()
	}

	resp := make([]dto.MenuItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toDTO(item))
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

	ctx, span := httpTracer.Start(c.Request().Context(), "menuItems.getByID", trace.WithAttributes(attribute.Int64("menu_item.id", id)))
	defer span.End()

	item, err := h.svc.Item(ctx, actor, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(item)).Build()
}

func toDTO(item *entity.MenuItem) dto.MenuItemResponse {
	return dto.MenuItemResponse{
		ID:         item.ID,
		CategoryID: item.CategoryID,
		Name:       item.Name,
		PriceCents: item.PriceCents,
		Available:  item.Available,
	}
}
