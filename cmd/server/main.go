package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/storepos/backend/internal/application/catalog"
	identityapp "github.com/storepos/backend/internal/application/identity"
	integrationapp "github.com/storepos/backend/internal/application/integration"
	inventoryapp "github.com/storepos/backend/internal/application/inventory"
	reportapp "github.com/storepos/backend/internal/application/report"
	tradeapp "github.com/storepos/backend/internal/application/trade"
	"github.com/storepos/backend/internal/domain/trade"
	"github.com/storepos/backend/internal/infrastructure/auth"
	"github.com/storepos/backend/internal/infrastructure/cache"
	"github.com/storepos/backend/internal/infrastructure/config"
	"github.com/storepos/backend/internal/infrastructure/ecommerce"
	"github.com/storepos/backend/internal/infrastructure/logger"
	"github.com/storepos/backend/internal/infrastructure/receipt"
	"github.com/storepos/backend/internal/infrastructure/scheduler"
	"github.com/storepos/backend/internal/infrastructure/telemetry"
	"github.com/storepos/backend/internal/interfaces/http/handler"
	"github.com/storepos/backend/internal/interfaces/http/middleware"
	"github.com/storepos/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// The watcher may fire before the client exists
	var upstream atomic.Pointer[ecommerce.WooCommerceClient]
	var log *zap.Logger

	cfg, err := config.LoadAndWatch(func(next *config.Config, err error) {
		if log == nil {
			return
		}
		if err != nil {
			log.Warn("Ignoring invalid configuration change", zap.Error(err))
			return
		}
		client := upstream.Load()
		if client == nil {
			return
		}
		if err := client.Reload(ecommerce.NewWooCommerceConfig(next.Upstream)); err != nil {
			log.Warn("Upstream settings change rejected", zap.Error(err))
			return
		}
		log.Info("Upstream settings reloaded from config file", zap.String("store_url", next.Upstream.StoreURL))
	})
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err = logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	// Telemetry first so the stores and clients below pick up the providers
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		log = loggerProvider.Bridge(log, zapcore.InfoLevel)
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   serviceName,
		BasicAuthUser:     cfg.Profiling.AuthUser,
		BasicAuthPassword: cfg.Profiling.AuthPassword,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", zap.Error(err))
	} else if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting till backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	meter := meterProvider.Meter(serviceName)
	posMetrics, err := telemetry.NewPosMetrics(meter, log)
	if err != nil {
		log.Fatal("Failed to register till metrics", zap.Error(err))
	}

	// Storage
	st, err := openStores(rootCtx, cfg, meter, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.Close()

	// Commerce platform
	client, err := ecommerce.NewWooCommerceClient(ecommerce.NewWooCommerceConfig(cfg.Upstream),
		ecommerce.WithClientLogger(log.Named("woocommerce")),
		ecommerce.WithRequestRecorder(posMetrics),
	)
	if err != nil {
		log.Fatal("Invalid upstream configuration", zap.Error(err))
	}
	upstream.Store(client)

	// Push claims and session revocation share one Redis connection
	claims, err := cache.NewClaimStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(rootCtx)
	if err != nil {
		log.Fatal("Failed to create push claim store", zap.Error(err))
	}
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	readyChecks := map[string]handler.PingFunc{}
	if st.ping != nil {
		readyChecks["database"] = st.ping
	}
	if redisClaims, ok := claims.(*cache.RedisClaimStore); ok {
		blacklist = auth.NewRedisTokenBlacklist(redisClaims.Client())
		readyChecks["redis"] = func(ctx context.Context) error {
			return redisClaims.Client().Ping(ctx).Err()
		}
		defer func() {
			if err := redisClaims.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
	}

	// Identity
	directory, err := auth.NewConfigDirectory(cfg.Auth.Users)
	if err != nil {
		log.Fatal("Invalid cashier accounts", zap.Error(err))
	}
	authService := identityapp.NewAuthService(directory, auth.NewJWTService(cfg.JWT), blacklist, log)

	// Application services
	catalogService := catalogapp.NewCatalogService(st.products, st.customers, client,
		catalogapp.WithMissPolicy(catalogapp.ParseMissPolicy(cfg.Catalog.MissPolicy)),
		catalogapp.WithPageSize(cfg.Catalog.PageSize),
		catalogapp.WithListLimit(cfg.Catalog.ListLimit),
		catalogapp.WithFetchTimeout(cfg.Catalog.FetchTimeout),
		catalogapp.WithLookupRecorder(posMetrics),
		catalogapp.WithLogger(log),
	)

	ledgerOpts := []inventoryapp.LedgerOption{
		inventoryapp.WithLedgerLogger(log),
		inventoryapp.WithAdjustmentRecorder(posMetrics),
	}
	if cfg.POS.PushStockOnAdjust {
		ledgerOpts = append(ledgerOpts, inventoryapp.WithAutoPush(catalogService))
	}
	stockLedger := inventoryapp.NewStockLedger(st.products, st.adjustments, ledgerOpts...)

	orderLedger := tradeapp.NewOrderLedger(st.orders,
		tradeapp.WithLedgerLogger(log),
		tradeapp.WithOrderRecorder(posMetrics),
	)
	reconciler := integrationapp.NewSyncReconciler(orderLedger, client, claims,
		integrationapp.WithClaimTTL(cfg.Sync.ClaimTTL),
		integrationapp.WithVerifyBeforePush(cfg.Sync.VerifyBeforePush),
		integrationapp.WithSyncRecorder(posMetrics),
		integrationapp.WithReconcilerLogger(log),
	)

	checkoutOpts := []tradeapp.CheckoutOption{tradeapp.WithCheckoutLogger(log)}
	if cfg.Sync.Enabled && cfg.Sync.PushOnCheckout {
		checkoutOpts = append(checkoutOpts, tradeapp.WithPusher(reconciler))
	}
	checkoutService := tradeapp.NewCheckoutService(orderLedger, catalogService, catalogService,
		trade.NewCalculator(cfg.POS.TaxRate), checkoutOpts...)

	receiptService, closeReceipts, err := newReceiptService(rootCtx, cfg, orderLedger, log)
	if err != nil {
		log.Fatal("Failed to set up receipts", zap.Error(err))
	}
	defer closeReceipts()

	settingsService := integrationapp.NewSettingsService(client, integrationapp.TillSettings{
		TaxRate:           cfg.POS.TaxRate,
		MissPolicy:        cfg.Catalog.MissPolicy,
		SyncEnabled:       cfg.Sync.Enabled,
		SyncInterval:      cfg.Sync.Interval,
		LowStockThreshold: cfg.POS.LowStockThreshold,
	}, log)
	dashboardService := reportapp.NewDashboardService(st.orders, st.products, st.customers,
		reportapp.WithLowStockThreshold(cfg.POS.LowStockThreshold),
		reportapp.WithDashboardLogger(log),
	)

	posMetrics.StartCollection(rootCtx, func(ctx context.Context) (telemetry.Snapshot, error) {
		stats, err := dashboardService.Stats(ctx)
		if err != nil {
			return telemetry.Snapshot{}, err
		}
		return telemetry.Snapshot{UnsyncedOrders: stats.UnsyncedOrders, LowStockProducts: stats.LowStockCount}, nil
	}, cfg.Telemetry.MetricsInterval)

	// Background work
	var reconcileTrigger *scheduler.ReconcileTrigger
	if cfg.Sync.Enabled {
		reconcileTrigger, err = scheduler.NewReconcileTrigger(scheduler.ReconcileTriggerConfig{
			Interval:    cfg.Sync.Interval,
			PassTimeout: cfg.Sync.PassTimeout,
			RunOnStart:  true,
		}, reconciler, log.Named("reconcile"))
		if err != nil {
			log.Fatal("Invalid sync settings", zap.Error(err))
		}
		if err := reconcileTrigger.Start(rootCtx); err != nil {
			log.Fatal("Failed to start order reconciliation", zap.Error(err))
		}
	}
	catalogRefresh := scheduler.NewCatalogRefreshTrigger(cfg.Catalog.RefreshInterval, catalogService, log.Named("catalog-refresh"))
	if err := catalogRefresh.Start(rootCtx); err != nil {
		log.Fatal("Failed to start catalog refresh", zap.Error(err))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	// Middleware order matters:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Tracing and metrics
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Tracing(middleware.TracingConfig{ServiceName: serviceName, Enabled: cfg.Telemetry.Enabled}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(meter, log))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, readyChecks)
	router.RegisterProbes(engine, systemHandler)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.Auth(middleware.AuthConfig{
		Authenticator: authService,
		SkipPaths:     cfg.Auth.SkipPaths,
		Logger:        log,
	}))
	r.Use(middleware.TracingAttributeInjector())

	var loginLimiter *middleware.RateLimiter
	if cfg.HTTP.LoginAttempts > 0 {
		loginLimiter = middleware.NewRateLimiter(cfg.HTTP.LoginAttempts, cfg.HTTP.LoginWindow)
	}
	orderHandler := handler.NewOrderHandler(checkoutService, orderLedger, reconciler, receiptService)
	if reconcileTrigger != nil {
		orderHandler.WithBackgroundSync(reconcileTrigger)
	}
	router.RegisterAPI(r, router.Handlers{
		Auth:            handler.NewAuthHandler(authService),
		System:          systemHandler,
		Product:         handler.NewProductHandler(catalogService),
		StockAdjustment: handler.NewStockAdjustmentHandler(stockLedger),
		Customer:        handler.NewCustomerHandler(catalogService),
		Order:           orderHandler,
		Dashboard:       handler.NewDashboardHandler(dashboardService),
		Settings:        handler.NewSettingsHandler(settingsService, log),
	}, loginLimiter)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if reconcileTrigger != nil {
		if err := reconcileTrigger.Stop(ctx); err != nil {
			log.Warn("Order reconciliation did not stop cleanly", zap.Error(err))
		}
	}
	if err := catalogRefresh.Stop(ctx); err != nil {
		log.Warn("Catalog refresh did not stop cleanly", zap.Error(err))
	}
	posMetrics.Stop()
	stopRoot()

	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Warn("Profiler shutdown failed", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(ctx); err != nil {
		log.Warn("Logger provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newReceiptService wires the renderer, the optional PDF printer and the
// optional archive. The returned func releases the printer.
func newReceiptService(ctx context.Context, cfg *config.Config, ledger *tradeapp.OrderLedger, log *zap.Logger) (*tradeapp.ReceiptService, func(), error) {
	renderer, err := receipt.NewHTMLRenderer(receipt.RendererConfig{
		StoreName: cfg.Receipt.StoreName,
		Footer:    cfg.Receipt.Footer,
	})
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	opts := []tradeapp.ReceiptOption{tradeapp.WithReceiptLogger(log)}
	if cfg.Receipt.PDFEnabled {
		printer := receipt.NewChromePrinter(receipt.ChromeConfig{
			Timeout:   cfg.Receipt.RenderTimeout,
			RemoteURL: cfg.Receipt.ChromeRemoteURL,
			NoSandbox: cfg.Receipt.ChromeNoSandbox,
			Logger:    log.Named("chrome"),
		})
		opts = append(opts, tradeapp.WithPDFConverter(printer))
		closeFn = func() {
			if err := printer.Close(); err != nil {
				log.Warn("Error closing receipt printer", zap.Error(err))
			}
		}
	}
	if cfg.Receipt.ArchiveEnabled {
		archive, err := receipt.NewArchive(ctx, cfg.Storage, log.Named("receipt-archive"))
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		opts = append(opts, tradeapp.WithReceiptArchive(archive))
	}
	return tradeapp.NewReceiptService(ledger, renderer, opts...), closeFn, nil
}
