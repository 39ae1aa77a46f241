package ai

import (
	"github.com/elimisha-app/elimisha/internal/ai/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ai.service",
	fx.Provide(
		service.New,
	),
)
