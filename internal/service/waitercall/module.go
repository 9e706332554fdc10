package waitercall

import "go.uber.org/fx"

// Module exports the waiter call service for dependency injection.
var Module = fx.Provide(NewService)
