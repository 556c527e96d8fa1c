package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/domain/trade"
	"go.uber.org/zap"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
	maxSyncErrorLength = 1000
)

// OrderRecorder observes committed sales
type OrderRecorder interface {
	RecordOrderCreated(ctx context.Context, paymentMethod string, total decimal.Decimal)
}

// LedgerOption configures an OrderLedger
type LedgerOption func(*OrderLedger)

// WithLedgerLogger sets the ledger logger
func WithLedgerLogger(logger *zap.Logger) LedgerOption {
	return func(l *OrderLedger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithOrderRecorder sets the metrics sink
func WithOrderRecorder(recorder OrderRecorder) LedgerOption {
	return func(l *OrderLedger) {
		l.recorder = recorder
	}
}

// WithLedgerClock overrides the time source used for sync bookkeeping
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *OrderLedger) {
		l.now = now
	}
}

// OrderLedger is the durable record of sales made at the till. It never
// talks to the network: an order is committed here first and reconciled later.
type OrderLedger struct {
	repo     trade.PosOrderRepository
	locks    *shared.KeyedMutex
	logger   *zap.Logger
	recorder OrderRecorder
	now      func() time.Time
}

// NewOrderLedger creates a new OrderLedger
func NewOrderLedger(repo trade.PosOrderRepository, opts ...LedgerOption) *OrderLedger {
	l := &OrderLedger{
		repo:   repo,
		locks:  shared.NewKeyedMutex(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create validates and persists a sale, stamped unsynced
func (l *OrderLedger) Create(ctx context.Context, in trade.NewOrderInput) (*trade.PosOrder, error) {
	order, err := trade.NewPosOrder(in)
	if err != nil {
		return nil, err
	}
	if err := l.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	if l.recorder != nil {
		l.recorder.RecordOrderCreated(ctx, string(order.PaymentMethod), order.Total)
	}
	l.logger.Info("Order committed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("cashier_id", order.CashierID),
	)
	return order, nil
}

// Get returns an order by id
func (l *OrderLedger) Get(ctx context.Context, id uuid.UUID) (*trade.PosOrder, error) {
	return l.repo.FindByID(ctx, id)
}

// GetByNumber returns an order by its receipt number
func (l *OrderLedger) GetByNumber(ctx context.Context, orderNumber string) (*trade.PosOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewInvalidInput("order number is required")
	}
	return l.repo.FindByOrderNumber(ctx, orderNumber)
}

// ListRecent returns up to limit orders, newest first
func (l *OrderLedger) ListRecent(ctx context.Context, limit int) ([]trade.PosOrder, error) {
	switch {
	case limit <= 0:
		limit = defaultRecentLimit
	case limit > maxRecentLimit:
		limit = maxRecentLimit
	}
	return l.repo.ListRecent(ctx, limit)
}

// ListUnsynced returns every order still waiting for upstream, oldest first
func (l *OrderLedger) ListUnsynced(ctx context.Context) ([]trade.PosOrder, error) {
	return l.repo.ListUnsynced(ctx)
}

// MarkSynced records the upstream id of a pushed order. It is idempotent:
// the first upstream id wins and later calls report false.
func (l *OrderLedger) MarkSynced(ctx context.Context, id uuid.UUID, upstreamOrderID int64) (bool, error) {
	if upstreamOrderID <= 0 {
		return false, shared.NewInvalidInput("upstream order id must be positive")
	}
	unlock := l.locks.Lock(id.String())
	defer unlock()
	changed, err := l.repo.MarkSynced(ctx, id, upstreamOrderID, l.now())
	if err != nil {
		return false, err
	}
	if changed {
		l.logger.Info("Order synced",
			zap.String("order_id", id.String()),
			zap.Int64("upstream_order_id", upstreamOrderID),
		)
	}
	return changed, nil
}

// RecordSyncFailure notes a failed push without changing the sync state
func (l *OrderLedger) RecordSyncFailure(ctx context.Context, id uuid.UUID, cause error) error {
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	if len(message) > maxSyncErrorLength {
		message = message[:maxSyncErrorLength]
	}
	unlock := l.locks.Lock(id.String())
	defer unlock()
	return l.repo.RecordSyncFailure(ctx, id, message, l.now())
}

// MarkReceiptPrinted flags the order's receipt as printed
func (l *OrderLedger) MarkReceiptPrinted(ctx context.Context, id uuid.UUID) (*trade.PosOrder, error) {
	unlock := l.locks.Lock(id.String())
	defer unlock()
	if err := l.repo.MarkReceiptPrinted(ctx, id, l.now()); err != nil {
		return nil, err
	}
	return l.repo.FindByID(ctx, id)
}
