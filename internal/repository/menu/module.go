package menu

import "go.uber.org/fx"

// Module provides the menu read model to Fx.
var Module = fx.Provide(NewRepository)
