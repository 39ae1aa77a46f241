package progress

import (
	"github.com/elimisha-app/elimisha/internal/progress/repository"
	"github.com/elimisha-app/elimisha/internal/progress/service"
	"go.uber.org/fx"
)

var Module = fx.Module("progress.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
