package display

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/notifier"
	"github.com/zerobertocosta/Karibu/internal/presentation/http/response"
	"github.com/zerobertocosta/Karibu/internal/transport/http/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// kitchen displays connect from tablets on the local network
		return true
	},
}

// Handler serves the kitchen display websocket feed.
type Handler struct {
	hub    *notifier.Hub
	logger *zap.Logger
}

// NewHandler constructs a display Handler.
func NewHandler(hub *notifier.Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// Register routes under the authenticated API group.
func Register(g *echo.Group, h *Handler) {
	g.GET("/ws/kitchen", h.serve)
}

// serve upgrades the connection and streams ticket notifications for the
// caller's establishment until the display disconnects.
func (h *Handler) serve(c echo.Context) error {
	actor, err := middleware.Actor(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}

	channel := notifier.ChannelKey(actor.EstablishmentID)
	h.hub.Subscribe(channel, conn)
	h.logger.Info("kitchen display connected",
		zap.Int64("establishment_id", actor.EstablishmentID),
		zap.Int("subscribers", h.hub.Subscribers(channel)),
	)

	defer func() {
		h.hub.Unsubscribe(channel, conn)
		h.logger.Info("kitchen display disconnected", zap.Int64("establishment_id", actor.EstablishmentID))
	}()

	// displays only listen; the read loop just detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("kitchen display read failed", zap.Error(err))
			}
			return nil
		}
	}
}
