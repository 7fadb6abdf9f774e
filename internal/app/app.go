package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/paymentsmodule/server/internal/module/card"
	"github.com/paymentsmodule/server/internal/module/payment"
	"github.com/paymentsmodule/server/internal/module/payment/gateway"
	"github.com/paymentsmodule/server/internal/shared/config"
	"github.com/paymentsmodule/server/internal/shared/database"
	"github.com/paymentsmodule/server/internal/utils/metrics"
	"github.com/paymentsmodule/server/internal/utils/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires configuration, storage, the payment gateway and the HTTP
// layer together.
type App struct {
	config  *config.Config
	db      *gorm.DB // nil when the in-memory store is selected
	router  *gin.Engine
	logger  *zap.Logger
	metrics *metrics.Metrics

	cardHandler    *card.Handler
	paymentHandler *payment.Handler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger, err := newLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New("payments"),
	}

	cardRepo, paymentRepo, err := app.initStorage()
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	gw := app.initGateway()

	cardService := card.NewService(cardRepo, gw, logger)
	paymentService := payment.NewService(paymentRepo, cardRepo, gw, app.metrics, logger)

	app.cardHandler = card.NewHandler(cardService)
	app.paymentHandler = payment.NewHandler(paymentService)

	app.router = app.setupRouter()

	return app, nil
}

// initStorage opens the configured record store and runs migrations.
func (a *App) initStorage() (card.Repository, payment.Repository, error) {
	if a.config.Database.InMemory() {
		a.logger.Info("using in-memory record store")
		return card.NewMemoryRepository(), payment.NewMemoryRepository(), nil
	}

	db, err := database.New(&a.config.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(&card.Card{}, &payment.Order{}, &payment.Payment{}, &payment.Refund{}); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	a.db = db

	return card.NewRepository(db), payment.NewRepository(db), nil
}

// initGateway builds the simulated gateway wrapped in a circuit
// breaker and metrics instrumentation.
func (a *App) initGateway() gateway.Client {
	cfg := &a.config.Gateway

	odds := gateway.Odds{
		ChargeApproval: cfg.ChargeApprovalRate,
		CardRefund:     cfg.CardRefundRate,
		Deposit:        cfg.DepositRate,
		CardRejection:  cfg.CardRejectionRate,
	}
	sim := gateway.NewSimulated(odds, cfg.Seed, gateway.WithLatency(cfg.Latency))

	breaker := gateway.NewBreaker(sim, gateway.BreakerSettings{
		ConsecutiveFailures: cfg.BreakerFailures,
		Timeout:             cfg.BreakerTimeout,
	})

	return gateway.NewInstrumented(breaker, a.metrics)
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	a.cardHandler.RegisterRoutes(api)
	a.paymentHandler.RegisterRoutes(api)

	return r
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases application resources.
func (a *App) Stop() {
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
