package telemetry

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Snapshot holds the gauge figures sampled on every collection tick
type Snapshot struct {
	UnsyncedOrders   int64
	LowStockProducts int64
}

// SnapshotFunc samples the current gauge figures
type SnapshotFunc func(ctx context.Context) (Snapshot, error)

// PosMetrics records till activity: sales, order pushes, stock adjustments,
// cache lookups and commerce platform calls.
type PosMetrics struct {
	logger *zap.Logger

	ordersCreated    *Counter
	salesCents       *Counter
	syncResults      *Counter
	stockAdjustments *Counter
	cacheLookups     *Counter
	upstreamDuration *Histogram
	unsyncedOrders   *Gauge
	lowStock         *Gauge

	stopCh      chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// NewPosMetrics registers the POS instruments on meter.
func NewPosMetrics(meter metric.Meter, logger *zap.Logger) (*PosMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &PosMetrics{logger: logger, stopCh: make(chan struct{})}

	var err error
	if m.ordersCreated, err = NewCounter(meter, "pos_orders_created_total", "Orders committed at the till", "{orders}"); err != nil {
		return nil, err
	}
	if m.salesCents, err = NewCounter(meter, "pos_sales_amount_total", "Sales value committed at the till, in cents", "{cents}"); err != nil {
		return nil, err
	}
	if m.syncResults, err = NewCounter(meter, "pos_order_sync_total", "Order push attempts by outcome", "{attempts}"); err != nil {
		return nil, err
	}
	if m.stockAdjustments, err = NewCounter(meter, "pos_stock_adjustments_total", "Stock adjustments applied", "{adjustments}"); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = NewCounter(meter, "pos_catalog_cache_lookups_total", "Catalog cache lookups by result", "{lookups}"); err != nil {
		return nil, err
	}
	if m.upstreamDuration, err = NewHistogram(meter, "pos_upstream_request_duration_seconds",
		"Commerce platform request duration", "s", UpstreamDurationBuckets...); err != nil {
		return nil, err
	}
	if m.unsyncedOrders, err = NewGauge(meter, "pos_unsynced_orders", "Orders not yet pushed upstream", "{orders}"); err != nil {
		return nil, err
	}
	if m.lowStock, err = NewGauge(meter, "pos_low_stock_products", "Tracked products under the low stock threshold", "{products}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOrderCreated counts a committed sale and its value
func (m *PosMetrics) RecordOrderCreated(ctx context.Context, paymentMethod string, total decimal.Decimal) {
	attr := AttrPaymentMethod.String(paymentMethod)
	m.ordersCreated.Inc(ctx, attr)
	m.salesCents.Add(ctx, total.Shift(2).Round(0).IntPart(), attr)
}

// RecordSyncResult counts one order push
func (m *PosMetrics) RecordSyncResult(ctx context.Context, success bool, errorCode string) {
	if success {
		m.syncResults.Inc(ctx, AttrOutcome.String("success"))
		return
	}
	m.syncResults.Inc(ctx, AttrOutcome.String("failure"), AttrErrorCode.String(errorCode))
}

// RecordStockAdjustment counts one applied adjustment
func (m *PosMetrics) RecordStockAdjustment(ctx context.Context, kind string, oversell bool) {
	m.stockAdjustments.Inc(ctx, AttrAdjustment.String(kind), AttrOversell.Bool(oversell))
}

// RecordCacheLookup counts a catalog cache hit or miss
func (m *PosMetrics) RecordCacheLookup(ctx context.Context, entity string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(ctx, AttrEntity.String(entity), AttrCacheResult.String(result))
}

// RecordUpstreamRequest observes one commerce platform call. status is 0
// when no response arrived.
func (m *PosMetrics) RecordUpstreamRequest(ctx context.Context, op string, status int, d time.Duration) {
	m.upstreamDuration.RecordDuration(ctx, d,
		AttrOperation.String(op),
		AttrStatusCode.String(strconv.Itoa(status)),
	)
}

// StartCollection samples the gauges every interval until Stop or ctx ends.
// Only the first call has an effect.
func (m *PosMetrics) StartCollection(ctx context.Context, sample SnapshotFunc, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		go m.collect(ctx, sample, interval)
	})
}

func (m *PosMetrics) collect(ctx context.Context, sample SnapshotFunc, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.sample(ctx, sample)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx, sample)
		}
	}
}

func (m *PosMetrics) sample(ctx context.Context, sample SnapshotFunc) {
	snap, err := sample(ctx)
	if err != nil {
		m.logger.Warn("Failed to sample POS gauges", zap.Error(err))
		return
	}
	m.unsyncedOrders.Record(ctx, snap.UnsyncedOrders)
	m.lowStock.Record(ctx, snap.LowStockProducts)
}

// Stop ends periodic collection. Safe to call more than once.
func (m *PosMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = &MetricsError{Op: "NewPosMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
