package notifier

import (
	"context"

	"go.uber.org/fx"
)

// Module wires the hub and publisher into the Fx graph.
var Module = fx.Options(
	fx.Provide(NewHub),
	fx.Provide(NewPublisher),
	fx.Invoke(func(lc fx.Lifecycle, hub *Hub) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go hub.Run()
				return nil
			},
			OnStop: func(context.Context) error {
				hub.Close()
				return nil
			},
		})
	}),
)
