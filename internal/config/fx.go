package config

import "go.uber.org/fx"

// Module wires application and voting configuration.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewVotingConfigHolder,
	),
)
