package menu

import "go.uber.org/fx"

// Module exports the menu service for dependency injection.
var Module = fx.Provide(NewService)
