package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	aidomain "github.com/elimisha-app/elimisha/internal/ai/domain"
	analyticsdomain "github.com/elimisha-app/elimisha/internal/analytics/domain"
	authdomain "github.com/elimisha-app/elimisha/internal/auth/domain"
	"github.com/elimisha-app/elimisha/internal/auth/session"
	"github.com/elimisha-app/elimisha/internal/config"
	exportdomain "github.com/elimisha-app/elimisha/internal/export/domain"
	"github.com/elimisha-app/elimisha/internal/logger"
	paymentdomain "github.com/elimisha-app/elimisha/internal/payment/domain"
	progressdomain "github.com/elimisha-app/elimisha/internal/progress/domain"
	responsedomain "github.com/elimisha-app/elimisha/internal/response/domain"
	subscriptiondomain "github.com/elimisha-app/elimisha/internal/subscription/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, log *zap.Logger, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	sessions        *session.Manager
	pricing         *config.PricingHolder
	authSvc         authdomain.Service
	aiSvc           aidomain.Service
	responseSvc     responsedomain.Service
	progressSvc     progressdomain.Service
	analyticsSvc    analyticsdomain.Service
	subscriptionSvc subscriptiondomain.Service
	paymentSvc      paymentdomain.Service
	exportSvc       exportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	Sessions        *session.Manager
	Pricing         *config.PricingHolder
	AuthSvc         authdomain.Service
	AISvc           aidomain.Service
	ResponseSvc     responsedomain.Service
	ProgressSvc     progressdomain.Service
	AnalyticsSvc    analyticsdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	PaymentSvc      paymentdomain.Service
	ExportSvc       exportdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		db:              p.DB,
		sessions:        p.Sessions,
		pricing:         p.Pricing,
		authSvc:         p.AuthSvc,
		aiSvc:           p.AISvc,
		responseSvc:     p.ResponseSvc,
		progressSvc:     p.ProgressSvc,
		analyticsSvc:    p.AnalyticsSvc,
		subscriptionSvc: p.SubscriptionSvc,
		paymentSvc:      p.PaymentSvc,
		exportSvc:       p.ExportSvc,
	}

	s.registerAuthRoutes()
	s.registerPublicRoutes()
	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.SignUp)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerPublicRoutes() {
	s.engine.GET("/api/subscription/plans", s.Plans)

	// The gateway posts payment results here. No auth; the handler validates
	// by correlation id and always acknowledges.
	s.engine.POST("/api/subscription/mpesa-callback", s.MpesaCallback)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.POST("/responses", s.SubmitResponse)
	api.GET("/responses", s.ResponseHistory)
	api.GET("/study-tips", s.StudyTips)

	analytics := api.Group("/analytics")
	analytics.GET("/timeline", s.Timeline)
	analytics.GET("/topic-comparison", s.TopicComparison)
	analytics.GET("/streak", s.Streak)
	analytics.GET("/weekly-summary", s.WeeklySummary)
	analytics.GET("/heatmap", s.Heatmap)
	analytics.GET("/time-patterns", s.TimePatterns)

	sub := api.Group("/subscription")
	sub.GET("/current", s.CurrentSubscription)
	sub.GET("/usage", s.Usage)
	sub.POST("/initiate-mpesa", s.InitiatePayment)
	sub.POST("/check-payment", s.CheckPayment)
	sub.POST("/cancel", s.CancelSubscription)
	if !s.cfg.IsProduction() {
		sub.POST("/upgrade", s.DevUpgrade)
	}

	export := api.Group("/export", s.PremiumRequired())
	export.GET("/history-csv", s.ExportHistory)
	export.GET("/progress-csv", s.ExportProgress)
	export.GET("/full-report-csv", s.ExportFullReport)
}
