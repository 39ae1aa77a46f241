package config

import "go.uber.org/fx"

// Module wires application configuration and the pricing table.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewPricingHolder,
	),
)
