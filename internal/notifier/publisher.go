package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/config"
	"github.com/zerobertocosta/Karibu/internal/messaging"
)

// NewPublisher selects the broadcast transport from configuration. The
// websocket driver feeds the in-process hub directly; the kafka driver hands
// the notification to the bus so the display worker on any instance can relay
// it into its local hub.
func NewPublisher(cfg config.Config, hub *Hub, client messaging.Client, logger *zap.Logger) (Publisher, error) {
	switch cfg.Notifier.Driver {
	case "noop":
		if logger != nil {
			logger.Info("kitchen notifier disabled; using noop publisher")
		}
		return noopPublisher{}, nil
	case "websocket":
		return &hubPublisher{hub: hub}, nil
	case "kafka":
		return &kafkaPublisher{client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported notifier driver: %s", cfg.Notifier.Driver)
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, TicketNotification) error { return nil }

// hubPublisher broadcasts through the in-process websocket hub.
type hubPublisher struct {
	hub *Hub
}

func (p *hubPublisher) Publish(_ context.Context, channelKey string, n TicketNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	p.hub.Broadcast(channelKey, payload)
	return nil
}

// kafkaPublisher hands the notification to the message bus, keyed by channel
// so tickets from the same establishment stay on one partition in order.
type kafkaPublisher struct {
	client messaging.Client
}

func (p *kafkaPublisher) Publish(ctx context.Context, channelKey string, n TicketNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, []byte(channelKey), payload)
}
