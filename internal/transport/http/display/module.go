package display

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"
)

// Module wires the kitchen display websocket endpoint.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(g *echo.Group, h *Handler) {
		Register(g, h)
	}),
)
