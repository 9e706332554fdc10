package waitercall

import "go.uber.org/fx"

// Module provides the waiter-call repository to Fx.
var Module = fx.Provide(NewRepository)
