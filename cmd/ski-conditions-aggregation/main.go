package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	httpapi "github.com/i474232898/ski-conditions-aggregation/internal/api/http"
	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
	"github.com/i474232898/ski-conditions-aggregation/internal/conditions/providers"
	"github.com/i474232898/ski-conditions-aggregation/internal/config"
	"github.com/i474232898/ski-conditions-aggregation/internal/metrics"
	"github.com/i474232898/ski-conditions-aggregation/internal/scheduler"
	"github.com/i474232898/ski-conditions-aggregation/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	httpCfg := providers.NewHTTPClientConfig(httpClient, cfg.UpstreamMaxRetries, logger, m)

	service, err := conditions.NewService(conditions.Config{
		Resorts: cfg.Resorts,
		Adapters: []conditions.Adapter{
			providers.NewMtnPowderProvider(httpCfg, cfg.MtnPowderFeedURL),
			providers.NewVailProvider(httpCfg, clock),
		},
		Forecasts:    providers.NewNWSProvider(httpCfg, cfg.NWSBaseURL, cfg.NWSUserAgent),
		ResortCache:  store.NewTTLCache[conditions.ResortConditions](cfg.CacheTTL, clock),
		AreaCache:    store.NewTTLCache[conditions.AreaForecast](cfg.CacheTTL, clock),
		AreaLat:      cfg.AreaLat,
		AreaLon:      cfg.AreaLon,
		FetchTimeout: cfg.FetchTimeout,
		Location:     cfg.Location(),
		Clock:        clock,
		Logger:       logger,
		Metrics:      m,
	})
	if err != nil {
		logger.Fatal("failed to build conditions service", zap.Error(err))
	}

	// Optional background cache warming.
	sched := scheduler.New(cfg.WarmInterval, 2*cfg.FetchTimeout, service, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "ski-conditions-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.FetchTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "ski-conditions-aggregation",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
