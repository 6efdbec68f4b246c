package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"valcoin-api/internal/cache"
	"valcoin-api/internal/config"
	"valcoin-api/internal/controller"
	"valcoin-api/internal/database"
	"valcoin-api/internal/engine"
	"valcoin-api/internal/events"
	"valcoin-api/internal/middleware"
	"valcoin-api/internal/monitoring"
	"valcoin-api/internal/scheduler"
	"valcoin-api/internal/service"
	"valcoin-api/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"version":    version,
		"build_time": buildTime,
		"git_commit": gitCommit,
		"port":       cfg.Server.Port,
	}).Info("Starting ValCoin API")

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := initializeApp(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logrus.WithField("address", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	cancel()

	logrus.Info("Server exited")
}

// Application holds all application dependencies
type Application struct {
	config  *config.Config
	router  *gin.Engine
	cleanup func()
}

func initializeApp(ctx context.Context, cfg *config.Config) (*Application, error) {
	logrus.Info("Initializing application dependencies...")

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cacheService := cache.NewRedisCacheFromClient(db.Redis, cfg.Redis.KeyPrefix)

	metrics := monitoring.NewSettlementMetrics()
	if cfg.Monitoring.EnableMetrics {
		monitoring.StartSystemMetricsRecording(metrics, cfg.Monitoring.MetricsInterval)
	}

	// The broker is not on the settlement critical path: without it the jobs
	// still run, only the run events are lost.
	publisher, err := events.NewPublisher(&events.PublisherConfig{
		URL:           cfg.RabbitMQ.URL,
		ExchangeName:  cfg.RabbitMQ.Exchange,
		RetryAttempts: cfg.RabbitMQ.RetryAttempts,
		RetryDelay:    cfg.RabbitMQ.RetryDelay,
	})
	if err != nil {
		logrus.WithError(err).Warn("RabbitMQ unavailable, settlement run events disabled")
		publisher = nil
	}

	interestJob := engine.NewInterestJob(db.Store)
	loanJob := engine.NewLoanJob(db.Store)
	salaryJob := engine.NewSalaryJob(db.Store)
	inactivityJob := engine.NewInactivityJob(db.Store)

	sched := scheduler.New(metrics, publisher)
	if cfg.Jobs.Enabled {
		registrations := []struct {
			spec string
			job  engine.Job
		}{
			{cfg.Jobs.InterestCron, interestJob},
			{cfg.Jobs.LoanChargesCron, loanJob},
			{cfg.Jobs.SalaryCron, salaryJob},
			{cfg.Jobs.InactivityFeeCron, inactivityJob},
		}
		for _, r := range registrations {
			if err := sched.Register(r.spec, r.job); err != nil {
				return nil, err
			}
		}
		sched.Start()
	} else {
		logrus.Warn("Settlement jobs are disabled, running API only")
	}

	settlementService := service.NewSettlementService(interestJob, loanJob, salaryJob, inactivityJob, metrics, publisher)
	ledgerService := service.NewLedgerService(db.Store, cacheService)

	healthChecker := monitoring.NewHealthChecker(version)
	healthChecker.RegisterCheck("postgres", monitoring.NewDatabaseChecker("postgres", func(ctx context.Context) error {
		return db.Postgres.PingContext(ctx)
	}))
	healthChecker.RegisterCheck("redis", monitoring.NewCacheChecker("redis", cacheService))
	if cfg.Monitoring.EnableHealthCheck {
		healthChecker.StartPeriodicChecks(cfg.Monitoring.HealthCheckInterval)
	}

	router := setupRouter(cfg, metrics, healthChecker, settlementService, ledgerService)

	cleanup := func() {
		logrus.Info("Cleaning up application resources...")
		if cfg.Jobs.Enabled {
			sched.Stop()
		}
		if cfg.Monitoring.EnableHealthCheck {
			healthChecker.StopPeriodicChecks()
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close publisher")
			}
		}
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database connections")
		}
	}

	logrus.Info("Application initialization completed")

	return &Application{
		config:  cfg,
		router:  router,
		cleanup: cleanup,
	}, nil
}

func setupRouter(
	cfg *config.Config,
	metrics *monitoring.SettlementMetrics,
	healthChecker monitoring.HealthChecker,
	settlementService service.SettlementService,
	ledgerService service.LedgerService,
) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies(cfg.Server.TrustedProxies)

	logging := middleware.NewLoggingMiddleware(nil)

	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(cors.Default())
	router.Use(logging.RequestLogger())
	if cfg.Monitoring.EnableMetrics {
		router.Use(logging.MetricsRecorder(metrics))
	}

	if cfg.Monitoring.EnableHealthCheck {
		router.GET(cfg.Monitoring.HealthCheckPath, func(c *gin.Context) {
			status := healthChecker.CheckHealth(c.Request.Context())
			code := http.StatusOK
			if status.Status == "unhealthy" {
				code = http.StatusServiceUnavailable
			}
			c.JSON(code, status)
		})
		// Last recorded state from the periodic checks, served without probing.
		router.GET(cfg.Monitoring.HealthCheckPath+"/components/:name", func(c *gin.Context) {
			status := healthChecker.GetComponentStatus(c.Param("name"))
			if status == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown component"})
				return
			}
			c.JSON(http.StatusOK, status)
		})
	}

	if cfg.Monitoring.EnableMetrics {
		router.GET(cfg.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    version,
			"build_time": buildTime,
			"git_commit": gitCommit,
			"service":    "valcoin-api",
		})
	})

	auth := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)
	ledgerController := controller.NewLedgerController(ledgerService)
	settlementController := controller.NewSettlementController(settlementService)

	api := router.Group("/api")
	{
		ledger := api.Group("/ledger")
		ledger.Use(auth.JWTAuth())
		{
			ledger.GET("/:userId/balance", ledgerController.GetBalance)
			ledger.GET("/:userId/transactions", ledgerController.GetTransactions)
		}

		admin := api.Group("/admin/settlements")
		admin.Use(auth.JWTAuth(), auth.RequireAdmin())
		{
			admin.POST("/interest/run", settlementController.RunInterest)
			admin.POST("/loans/run", settlementController.RunLoans)
			admin.POST("/salary/run", settlementController.RunSalary)
			admin.POST("/inactivity/run", settlementController.RunInactivity)
		}
	}

	return router
}
