package kitchen

import "go.uber.org/fx"

// Module provides the kitchen repository to Fx.
var Module = fx.Provide(NewRepository)
