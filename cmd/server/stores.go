package main

import (
	"context"

	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/inventory"
	"github.com/storepos/backend/internal/domain/trade"
	"github.com/storepos/backend/internal/infrastructure/cache"
	"github.com/storepos/backend/internal/infrastructure/config"
	"github.com/storepos/backend/internal/infrastructure/logger"
	"github.com/storepos/backend/internal/infrastructure/persistence"
	"github.com/storepos/backend/internal/infrastructure/persistence/memory"
	"github.com/storepos/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// stores are the catalog caches and ledgers behind the services
type stores struct {
	products    catalog.ProductStore
	customers   catalog.CustomerStore
	orders      trade.PosOrderRepository
	adjustments inventory.StockAdjustmentRepository

	ping    func(ctx context.Context) error // nil for the memory driver
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores builds the stores for the configured driver. The memory driver
// keeps everything in process and loses it on restart.
func openStores(ctx context.Context, cfg *config.Config, meter metric.Meter, log *zap.Logger) (*stores, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("Using in-memory storage; orders are lost on restart")
		return &stores{
			products:    cache.NewProductStore(),
			customers:   cache.NewCustomerStore(),
			orders:      memory.NewPosOrderRepository(),
			adjustments: memory.NewStockAdjustmentRepository(),
		}, nil
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	s := &stores{
		products:    persistence.NewGormProductRepository(db.DB),
		customers:   persistence.NewGormCustomerRepository(db.DB),
		orders:      persistence.NewGormPosOrderRepository(db.DB),
		adjustments: persistence.NewGormStockAdjustmentRepository(db.DB),
		ping: func(context.Context) error {
			return db.Ping()
		},
	}
	s.closers = append(s.closers, func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	})

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		IncludeVariables:   cfg.App.Env == "development",
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:           cfg.Database.Driver,
	}, log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}

	if cfg.Telemetry.MetricsEnabled {
		dbMetrics, err := telemetry.NewDBMetrics(meter, telemetry.DBMetricsConfig{
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err != nil {
			log.Warn("Database metrics disabled", zap.Error(err))
			return s, nil
		}
		if err := dbMetrics.Register(db.DB); err != nil {
			log.Warn("Database metrics disabled", zap.Error(err))
			return s, nil
		}
		if sqlDB, err := db.DB.DB(); err == nil {
			dbMetrics.StartPoolStats(ctx, sqlDB)
		}
		s.closers = append(s.closers, dbMetrics.Stop)
	}
	return s, nil
}
