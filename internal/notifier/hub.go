package notifier

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/config"
)

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type envelope struct {
	channel string
	payload []byte
}

// Hub fans messages out to kitchen-display connections, grouped by channel
// key so each establishment only sees its own tickets. Broadcast never blocks:
// when the buffer is full the message is dropped, matching the best-effort
// delivery contract.
type Hub struct {
	mu        sync.RWMutex
	channels  map[string]map[Conn]bool
	broadcast chan envelope
	done      chan struct{}
	logger    *zap.Logger
}

// NewHub builds the hub with the configured broadcast buffer.
func NewHub(cfg config.Config, logger *zap.Logger) *Hub {
	return &Hub{
		channels:  make(map[string]map[Conn]bool),
		broadcast: make(chan envelope, cfg.Notifier.BufferSize),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Run drains the broadcast buffer until Close is called. A connection that
// fails a write is dropped from its channel.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// Close stops the run loop and closes every subscribed connection.
func (h *Hub) Close() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel, conns := range h.channels {
		for conn := range conns {
			_ = conn.Close()
		}
		delete(h.channels, channel)
	}
}

// Subscribe registers a display connection on a channel.
func (h *Hub) Subscribe(channel string, conn Conn) {
	h.mu.Lock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[Conn]bool)
	}
	h.channels[channel][conn] = true
	h.mu.Unlock()
}

// Unsubscribe removes and closes a display connection.
func (h *Hub) Unsubscribe(channel string, conn Conn) {
	h.mu.Lock()
	if conns, ok := h.channels[channel]; ok {
		if conns[conn] {
			delete(conns, conn)
			_ = conn.Close()
		}
		if len(conns) == 0 {
			delete(h.channels, channel)
		}
	}
	h.mu.Unlock()
}

// Broadcast queues a payload for every subscriber of the channel without
// blocking the caller. Messages queued for one channel keep their order.
func (h *Hub) Broadcast(channel string, payload []byte) {
	select {
	case h.broadcast <- envelope{channel: channel, payload: payload}:
	default:
		if h.logger != nil {
			h.logger.Warn("notifier buffer full; dropping broadcast", zap.String("channel", channel))
		}
	}
}

// Subscribers reports how many displays are on the channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) deliver(env envelope) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.channels[env.channel]))
	for conn := range h.channels[env.channel] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, env.payload); err != nil {
			if h.logger != nil {
				h.logger.Warn("kitchen display write failed; dropping connection", zap.Error(err))
			}
			h.Unsubscribe(env.channel, conn)
		}
	}
}
