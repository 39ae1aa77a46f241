package response

import (
	"github.com/elimisha-app/elimisha/internal/response/repository"
	"github.com/elimisha-app/elimisha/internal/response/service"
	"go.uber.org/fx"
)

var Module = fx.Module("response.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
