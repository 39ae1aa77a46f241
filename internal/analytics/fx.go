package analytics

import (
	"github.com/elimisha-app/elimisha/internal/analytics/repository"
	"github.com/elimisha-app/elimisha/internal/analytics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analytics.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
