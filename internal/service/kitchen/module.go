package kitchen

import "go.uber.org/fx"

// Module exports the kitchen service for dependency injection.
var Module = fx.Provide(NewService)
