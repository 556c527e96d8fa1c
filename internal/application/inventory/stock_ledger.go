package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/inventory"
	"github.com/storepos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	maxCommitAttempts   = 3
)

// AdjustmentRecorder observes committed adjustments
type AdjustmentRecorder interface {
	RecordStockAdjustment(ctx context.Context, kind string, oversell bool)
}

// StockPusher sends a product's cached quantity upstream
type StockPusher interface {
	PushStock(ctx context.Context, id int64) (*catalog.Product, error)
}

// AdjustCommand is a request to change a product's stock
type AdjustCommand struct {
	ProductID int64
	Kind      inventory.AdjustmentKind
	Magnitude int
	Actor     inventory.Actor
	Notes     string
}

// LedgerOption configures a StockLedger
type LedgerOption func(*StockLedger)

// WithLedgerLogger sets the ledger logger
func WithLedgerLogger(logger *zap.Logger) LedgerOption {
	return func(l *StockLedger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithAdjustmentRecorder sets the metrics sink
func WithAdjustmentRecorder(recorder AdjustmentRecorder) LedgerOption {
	return func(l *StockLedger) {
		l.recorder = recorder
	}
}

// WithAutoPush pushes the new quantity upstream after every committed adjustment
func WithAutoPush(pusher StockPusher) LedgerOption {
	return func(l *StockLedger) {
		l.pusher = pusher
	}
}

// WithLedgerClock overrides the time source
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *StockLedger) {
		l.now = now
	}
}

// StockLedger owns cached stock quantities. Every change goes through Adjust,
// which patches the cache and appends an audit record as one unit.
type StockLedger struct {
	products    catalog.ProductStore
	adjustments inventory.StockAdjustmentRepository
	locks       *shared.KeyedMutex
	logger      *zap.Logger
	recorder    AdjustmentRecorder
	pusher      StockPusher
	now         func() time.Time
}

// NewStockLedger creates a new StockLedger
func NewStockLedger(
	products catalog.ProductStore,
	adjustments inventory.StockAdjustmentRepository,
	opts ...LedgerOption,
) *StockLedger {
	l := &StockLedger{
		products:    products,
		adjustments: adjustments,
		locks:       shared.NewKeyedMutex(),
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Adjust applies an adjustment to a stock-managed product. Adjustments on the
// same product are serialized; the result is never clamped, so a negative
// quantity records an oversell.
func (l *StockLedger) Adjust(ctx context.Context, cmd AdjustCommand) (*inventory.StockAdjustment, error) {
	if cmd.ProductID <= 0 {
		return nil, shared.NewInvalidAdjustment("product id must be positive")
	}
	if !cmd.Kind.IsValid() {
		return nil, shared.NewInvalidAdjustment(fmt.Sprintf("unknown adjustment type %q", cmd.Kind))
	}
	if cmd.Magnitude <= 0 {
		return nil, shared.NewInvalidAdjustment("adjustment amount must be positive")
	}

	unlock := l.locks.Lock(strconv.FormatInt(cmd.ProductID, 10))
	adjustment, err := l.commit(ctx, cmd)
	unlock()
	if err != nil {
		return nil, err
	}

	if l.recorder != nil {
		l.recorder.RecordStockAdjustment(ctx, adjustment.Kind.String(), adjustment.IsOversell())
	}
	fields := []zap.Field{
		zap.Int64("product_id", adjustment.ProductID),
		zap.String("type", adjustment.Kind.String()),
		zap.Int("before", adjustment.QuantityBefore),
		zap.Int("after", adjustment.QuantityAfter),
		zap.String("actor_id", adjustment.ActorID),
	}
	if adjustment.IsOversell() {
		l.logger.Warn("Stock adjusted below zero", fields...)
	} else {
		l.logger.Info("Stock adjusted", fields...)
	}

	// the lock is released; a slow or failing push never holds up the till
	if l.pusher != nil {
		if _, err := l.pusher.PushStock(ctx, adjustment.ProductID); err != nil {
			l.logger.Warn("Stock push after adjustment failed",
				zap.Int64("product_id", adjustment.ProductID),
				zap.Error(err),
			)
		}
	}
	return adjustment, nil
}

// commit retries when a catalog refresh replaces the quantity between the
// read and the conditional patch, so the audit record always describes the
// value it replaced
func (l *StockLedger) commit(ctx context.Context, cmd AdjustCommand) (*inventory.StockAdjustment, error) {
	for attempt := 1; ; attempt++ {
		adjustment, err := l.commitOnce(ctx, cmd)
		if !errors.Is(err, catalog.ErrStockChanged) || attempt == maxCommitAttempts {
			return adjustment, err
		}
		l.logger.Debug("Cached stock changed during adjustment, retrying",
			zap.Int64("product_id", cmd.ProductID),
			zap.Int("attempt", attempt),
		)
	}
}

func (l *StockLedger) commitOnce(ctx context.Context, cmd AdjustCommand) (*inventory.StockAdjustment, error) {
	product, err := l.products.Get(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.ManageStock {
		return nil, shared.NewInvalidAdjustment(fmt.Sprintf("product %d does not track stock", cmd.ProductID))
	}

	before := product.Quantity()
	adjustment, err := inventory.NewStockAdjustment(cmd.ProductID, cmd.Kind, cmd.Magnitude, before, cmd.Actor, cmd.Notes)
	if err != nil {
		return nil, err
	}
	adjustment.CreatedAt = l.now()

	after := adjustment.QuantityAfter
	if _, err := l.products.Patch(ctx, cmd.ProductID, catalog.ProductPatch{
		StockQuantity:       &after,
		ExpectStockQuantity: &before,
	}); err != nil {
		if errors.Is(err, catalog.ErrStockChanged) {
			return nil, err
		}
		return nil, fmt.Errorf("update cached stock: %w", err)
	}
	if err := l.adjustments.Append(ctx, adjustment); err != nil {
		// a refresh that landed after the patch already holds the upstream value
		_, rerr := l.products.Patch(ctx, cmd.ProductID, catalog.ProductPatch{
			StockQuantity:       &before,
			ExpectStockQuantity: &after,
		})
		if rerr != nil && !errors.Is(rerr, catalog.ErrStockChanged) {
			l.logger.Error("Failed to revert cached stock after append failure",
				zap.Int64("product_id", cmd.ProductID),
				zap.Int("before", before),
				zap.Error(rerr),
			)
		}
		return nil, fmt.Errorf("append stock adjustment: %w", err)
	}
	return adjustment, nil
}

// ListForProduct returns a product's adjustment history, newest first
func (l *StockLedger) ListForProduct(ctx context.Context, productID int64, limit int) ([]inventory.StockAdjustment, error) {
	if productID <= 0 {
		return nil, shared.NewInvalidInput("product id must be positive")
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return l.adjustments.ListForProduct(ctx, productID, limit)
}
