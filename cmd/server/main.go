package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/application/kitchen"
	"github.com/akiliki/arruti-app-sub000/internal/application/orderstore"
	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/cache"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/config"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/gateway"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/logger"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/persistence"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/scheduler"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/telemetry"
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/handler"
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/middleware"
	"github.com/akiliki/arruti-app-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Bakery Production API
//	@version		1.0
//	@description	Order list and kitchen production board backed by the shop's order sheet

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		logger.Sync(log)
	}()

	loc := cfg.Location()
	log.Info("Starting bakery production service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("gateway", cfg.Gateway.Mode),
		zap.String("timezone", loc.String()),
	)

	metrics := telemetry.NewMetrics(telemetry.DefaultConfig())

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingAddress,
		ApplicationName: cfg.App.Name,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.TracingConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.Endpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
		SpanProfiles:      profiler.IsEnabled(),
	}, log.Named("tracing"))
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	logProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.ExportLogs,
		CollectorEndpoint: cfg.Telemetry.Endpoint,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log.Named("logs"))
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = logProvider.Bridge(log, zapcore.InfoLevel)

	gw, err := newGateway(cfg, loc, metrics, log)
	if err != nil {
		log.Fatal("Failed to create order gateway", zap.Error(err))
	}

	// Statistics cache
	cacheFactory := cache.NewStatsCacheFactory(cfg.Cache, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	statsCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create stats cache", zap.Error(err))
	}
	defer func() {
		if err := statsCache.Close(); err != nil {
			log.Error("Error closing stats cache", zap.Error(err))
		}
	}()

	storeOpts := []orderstore.Option{
		orderstore.WithLogger(log.Named("orderstore")),
		orderstore.WithMetrics(metrics),
		orderstore.WithStatsInvalidator(statsCache),
	}

	// Mutation journal
	var (
		db      *persistence.Database
		journal *persistence.GormJournalRepository
	)
	if cfg.Journal.Enabled {
		db, err = persistence.NewDatabase(cfg.Journal, log.Named("journal"), cfg.Log.Level)
		if err != nil {
			log.Fatal("Failed to connect to journal database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing journal database", zap.Error(err))
			}
		}()
		if tracerProvider.IsEnabled() {
			if err := telemetry.RegisterDBTracing(db.DB, cfg.Journal.Driver, log); err != nil {
				log.Fatal("Failed to enable journal tracing", zap.Error(err))
			}
		}
		journal = persistence.NewGormJournalRepository(db.DB)
		if err := db.Migrate(log.Named("migration")); err != nil {
			log.Fatal("Failed to migrate journal", zap.Error(err))
		}
		storeOpts = append(storeOpts, orderstore.WithRecorder(journal))
		log.Info("Mutation journal enabled", zap.String("driver", cfg.Journal.Driver))
	}

	store := orderstore.New(gw, storeOpts...)

	kitchenService := kitchen.NewService(store, log.Named("kitchen"))
	kitchenService.SetLocation(loc)
	kitchenService.SetStatsCache(statsCache, cfg.Cache.StatsTTL)
	kitchenService.SetUrgencyWindow(cfg.Urgency.Window)

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	if cfg.Sync.LoadOnStart {
		loadCtx, cancel := context.WithTimeout(rootCtx, cfg.Gateway.Timeout)
		if err := store.Load(loadCtx); err != nil {
			// The first request retries the load
			log.Warn("Initial order load failed", zap.Error(err))
		} else {
			log.Info("Orders loaded", zap.Int("count", len(store.Snapshot())))
		}
		cancel()
	}

	poller, err := scheduler.NewRefreshPoller(scheduler.RefreshPollerConfig{
		Interval: cfg.Sync.PollInterval,
		Timeout:  cfg.Gateway.Timeout,
	}, store, log.Named("poller"))
	if err != nil {
		log.Fatal("Failed to create refresh poller", zap.Error(err))
	}
	if err := poller.Start(rootCtx); err != nil {
		log.Fatal("Failed to start refresh poller", zap.Error(err))
	}

	// Setup validator
	middleware.SetupValidator()

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSOrigins

	engine.Use(middleware.RequestID())
	if tracerProvider.IsEnabled() {
		engine.Use(middleware.Tracing(cfg.App.Name), middleware.TraceRequestID())
	}
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(metrics.GinMiddleware())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))

	var writeLimit gin.HandlerFunc
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		go limiter.Run(rootCtx, time.Minute)
		writeLimit = middleware.RateLimit(limiter)
	}

	// Handlers
	orderHandler := handler.NewOrderHandler(store)
	orderHandler.SetLocation(loc)
	streamHandler := handler.NewOrderStreamHandler(store,
		handler.WithStreamLogger(log.Named("sse")),
		handler.WithStreamHeartbeat(cfg.HTTP.SSEHeartbeat),
		handler.WithStreamMaxClients(cfg.HTTP.SSEMaxClients),
		handler.WithStreamObserver(metrics),
	)
	kitchenHandler := handler.NewKitchenHandler(kitchenService, store, loc)
	healthHandler := handler.NewHealthHandler(cfg.App.Name, store)
	var journalHandler *handler.JournalHandler
	if journal != nil {
		journalHandler = handler.NewJournalHandler(journal)
		healthHandler.AddCheck("journal", db)
	}

	engine.GET("/health", healthHandler.Live)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(
		router.OrderRoutes(orderHandler, streamHandler, writeLimit),
		router.KitchenRoutes(kitchenHandler, writeLimit),
		router.JournalRoutes(journalHandler),
	)
	r.Setup()
	log.Debug("Routes registered", zap.Strings("routes", r.Routes()))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	streamHandler.Stop()
	if err := poller.Stop(ctx); err != nil {
		log.Warn("Refresh poller did not stop cleanly", zap.Error(err))
	}
	stopBackground()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler did not stop cleanly", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider did not flush", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := logProvider.Shutdown(ctx); err != nil {
		log.Warn("Logger provider did not flush", zap.Error(err))
	}
}

// newGateway builds the order gateway for the configured mode
func newGateway(cfg *config.Config, loc *time.Location, metrics *telemetry.Metrics, log *zap.Logger) (production.OrderGateway, error) {
	if cfg.Gateway.Mode == config.GatewayModeDemo {
		demo := gateway.NewDemoGateway()
		demo.Seed(cfg.Gateway.DemoSeed, cfg.Gateway.DemoOrders, time.Now().In(loc))
		demo.SetLatency(cfg.Gateway.DemoLatency)
		log.Warn("Using the demo order gateway; changes are kept in memory only",
			zap.Int("orders", cfg.Gateway.DemoOrders),
		)
		return demo, nil
	}

	httpGateway, err := gateway.NewHTTPGateway(gateway.Config{
		BaseURL:        cfg.Gateway.BaseURL,
		Timeout:        cfg.Gateway.Timeout,
		RateLimitRPS:   cfg.Gateway.RateLimitRPS,
		RateLimitBurst: cfg.Gateway.RateLimitBurst,
		Location:       loc,
	},
		gateway.WithLogger(log.Named("gateway")),
		gateway.WithObserver(metrics),
	)
	if err != nil {
		return nil, err
	}
	return httpGateway, nil
}
