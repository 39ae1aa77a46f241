package payment

import (
	"github.com/elimisha-app/elimisha/internal/config"
	"github.com/elimisha-app/elimisha/internal/payment/domain"
	"github.com/elimisha-app/elimisha/internal/payment/repository"
	"github.com/elimisha-app/elimisha/internal/payment/service"
	subdomain "github.com/elimisha-app/elimisha/internal/subscription/domain"
	"github.com/elimisha-app/elimisha/pkg/daraja"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(
		repository.Provide,
		service.New,
		provideGateway,
		provideActivator,
	),
)

func provideGateway(cfg config.Config) daraja.Client {
	return daraja.NewClient(daraja.Config{
		Environment:    cfg.Daraja.Environment,
		ConsumerKey:    cfg.Daraja.ConsumerKey,
		ConsumerSecret: cfg.Daraja.ConsumerSecret,
		ShortCode:      cfg.Daraja.ShortCode,
		Passkey:        cfg.Daraja.Passkey,
		CallbackURL:    cfg.Daraja.CallbackURL,
		Timeout:        cfg.Daraja.Timeout,
	})
}

func provideActivator(subs subdomain.Service) domain.SubscriptionActivator {
	return subs
}
