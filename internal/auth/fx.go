package auth

import (
	"github.com/elimisha-app/elimisha/internal/auth/repository"
	"github.com/elimisha-app/elimisha/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(
		repository.Provide,
		repository.ProvideSessions,
		service.New,
	),
)
