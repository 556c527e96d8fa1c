package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PosOrderRepository persists POS orders. Orders are never deleted.
type PosOrderRepository interface {
	// Create stores a new order
	Create(ctx context.Context, order *PosOrder) error

	// FindByID finds an order by its local id
	FindByID(ctx context.Context, id uuid.UUID) (*PosOrder, error)

	// FindByOrderNumber finds an order by its receipt number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*PosOrder, error)

	// ListRecent returns up to limit orders, newest first
	ListRecent(ctx context.Context, limit int) ([]PosOrder, error)

	// ListUnsynced returns every unsynced order, oldest first
	ListUnsynced(ctx context.Context) ([]PosOrder, error)

	// MarkSynced moves an unsynced order to synced. It reports false without
	// error when the order was already synced.
	MarkSynced(ctx context.Context, id uuid.UUID, upstreamOrderID int64, at time.Time) (bool, error)

	// RecordSyncFailure bumps the attempt counter and stores the last error
	RecordSyncFailure(ctx context.Context, id uuid.UUID, message string, at time.Time) error

	// MarkReceiptPrinted sets the receipt-printed flag
	MarkReceiptPrinted(ctx context.Context, id uuid.UUID, at time.Time) error

	// Summarize aggregates order figures for the dashboard
	Summarize(ctx context.Context, since time.Time) (*OrderSummary, error)
}

// OrderSummary holds dashboard figures over the order ledger
type OrderSummary struct {
	SalesSince      decimal.Decimal
	OrdersSince     int64
	CompletedOrders int64
	UnsyncedOrders  int64
}
