package subscription

import (
	"github.com/elimisha-app/elimisha/internal/subscription/repository"
	"github.com/elimisha-app/elimisha/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
