package table

import "go.uber.org/fx"

// Module exports the table service for dependency injection.
var Module = fx.Provide(NewService)
