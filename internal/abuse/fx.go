package abuse

import "go.uber.org/fx"

var Module = fx.Module("abuse.detector",
	fx.Provide(New),
)
