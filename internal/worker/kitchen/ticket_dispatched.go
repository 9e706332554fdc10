package kitchen

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/config"
	"github.com/zerobertocosta/Karibu/internal/messaging"
	"github.com/zerobertocosta/Karibu/internal/notifier"
	"github.com/zerobertocosta/Karibu/internal/worker"
)

var workerTracer = otel.Tracer("github.com/zerobertocosta/Karibu/worker/kitchen")

// Module registers kitchen-related worker handlers.
var Module = fx.Module("worker_kitchen",
	fx.Provide(
		fx.Annotate(
			NewTicketDispatchedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewTicketDispatchedHandler bridges broker-delivered ticket notifications
// into the local websocket hub. When dispatch notifications travel through
// kafka, each instance re-broadcasts them to the displays it holds open, so
// displays see tickets dispatched on any instance.
func NewTicketDispatchedHandler(hub *notifier.Hub, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.kitchen.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var payload notifier.TicketNotification
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("failed to decode ticket notification", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		channel := string(msg.Key)
		if channel == "" {
			logger.Warn("ticket notification missing channel key", zap.Int64("ticket_id", payload.TicketID))
			return nil
		}

		hub.Broadcast(channel, msg.Value)
		logger.Debug("ticket notification re-broadcast",
			zap.Int64("ticket_id", payload.TicketID),
			zap.String("channel", channel),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
