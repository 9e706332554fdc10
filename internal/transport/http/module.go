package http

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/zerobertocosta/Karibu/internal/config"
	"github.com/zerobertocosta/Karibu/internal/transport/http/display"
	kitchentransport "github.com/zerobertocosta/Karibu/internal/transport/http/kitchen"
	menutransport "github.com/zerobertocosta/Karibu/internal/transport/http/menu"
	"github.com/zerobertocosta/Karibu/internal/transport/http/middleware"
	ordertransport "github.com/zerobertocosta/Karibu/internal/transport/http/order"
	tabletransport "github.com/zerobertocosta/Karibu/internal/transport/http/table"
	waitercalltransport "github.com/zerobertocosta/Karibu/internal/transport/http/waitercall"
)

// NewAPIGroup mounts the authenticated API surface. Every handler registers
// its routes on this group, behind the tenant token check.
func NewAPIGroup(e *echo.Echo, cfg config.Config) *echo.Group {
	return e.Group("/api/v1", middleware.RequestID(), middleware.TenantAuth(cfg))
}

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	fx.Provide(NewAPIGroup),
	tabletransport.Module,
	menutransport.Module,
	ordertransport.Module,
	kitchentransport.Module,
	waitercalltransport.Module,
	display.Module,
)
