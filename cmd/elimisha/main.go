package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/elimisha-app/elimisha/internal/ai"
	"github.com/elimisha-app/elimisha/internal/analytics"
	"github.com/elimisha-app/elimisha/internal/auth"
	"github.com/elimisha-app/elimisha/internal/auth/session"
	"github.com/elimisha-app/elimisha/internal/config"
	"github.com/elimisha-app/elimisha/internal/export"
	"github.com/elimisha-app/elimisha/internal/logger"
	"github.com/elimisha-app/elimisha/internal/migration"
	"github.com/elimisha-app/elimisha/internal/payment"
	"github.com/elimisha-app/elimisha/internal/progress"
	"github.com/elimisha-app/elimisha/internal/response"
	"github.com/elimisha-app/elimisha/internal/server"
	"github.com/elimisha-app/elimisha/internal/subscription"
	"github.com/elimisha-app/elimisha/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Functional domains
		auth.Module,
		session.Module,
		ai.Module,
		progress.Module,
		response.Module,
		analytics.Module,
		subscription.Module,
		payment.Module,
		export.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
