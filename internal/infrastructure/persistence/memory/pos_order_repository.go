package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/domain/trade"
)

// PosOrderRepository keeps orders in insertion order behind a RWMutex
type PosOrderRepository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*trade.PosOrder
	ordering []uuid.UUID
}

// NewPosOrderRepository creates an empty in-memory order ledger
func NewPosOrderRepository() *PosOrderRepository {
	return &PosOrderRepository{orders: make(map[uuid.UUID]*trade.PosOrder)}
}

func copyOrder(o *trade.PosOrder) trade.PosOrder {
	c := *o
	c.Items = append([]trade.LineItem(nil), o.Items...)
	if o.UpstreamOrderID != nil {
		id := *o.UpstreamOrderID
		c.UpstreamOrderID = &id
	}
	if o.SyncedAt != nil {
		at := *o.SyncedAt
		c.SyncedAt = &at
	}
	if o.CustomerID != nil {
		id := *o.CustomerID
		c.CustomerID = &id
	}
	return c
}

// Create stores a copy of the order
func (r *PosOrderRepository) Create(_ context.Context, order *trade.PosOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return shared.NewInvalidOrder("order already exists")
	}
	for _, o := range r.orders {
		if o.OrderNumber == order.OrderNumber {
			return shared.NewInvalidOrder("order number already exists")
		}
	}
	c := copyOrder(order)
	r.orders[order.ID] = &c
	r.ordering = append(r.ordering, order.ID)
	return nil
}

// FindByID finds an order by its local id
func (r *PosOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*trade.PosOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := copyOrder(o)
	return &c, nil
}

// FindByOrderNumber finds an order by its receipt number
func (r *PosOrderRepository) FindByOrderNumber(_ context.Context, orderNumber string) (*trade.PosOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			c := copyOrder(o)
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

// sorted returns copies ordered by creation time, oldest first
func (r *PosOrderRepository) sorted(keep func(*trade.PosOrder) bool) []trade.PosOrder {
	out := make([]trade.PosOrder, 0, len(r.ordering))
	for _, id := range r.ordering {
		if o := r.orders[id]; keep == nil || keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ListRecent returns up to limit orders, newest first
func (r *PosOrderRepository) ListRecent(_ context.Context, limit int) ([]trade.PosOrder, error) {
	r.mu.RLock()
	all := r.sorted(nil)
	r.mu.RUnlock()

	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ListUnsynced returns every unsynced order, oldest first
func (r *PosOrderRepository) ListUnsynced(_ context.Context) ([]trade.PosOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(o *trade.PosOrder) bool { return !o.IsSynced() }), nil
}

// MarkSynced transitions an unsynced order; the first upstream id wins
func (r *PosOrderRepository) MarkSynced(_ context.Context, id uuid.UUID, upstreamOrderID int64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	return o.MarkSynced(upstreamOrderID, at), nil
}

// RecordSyncFailure bumps the attempt counter of an unsynced order
func (r *PosOrderRepository) RecordSyncFailure(_ context.Context, id uuid.UUID, message string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.RecordSyncFailure(message, at)
	return nil
}

// MarkReceiptPrinted sets the receipt-printed flag
func (r *PosOrderRepository) MarkReceiptPrinted(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.MarkReceiptPrinted(at)
	return nil
}

// Summarize aggregates order figures for the dashboard
func (r *PosOrderRepository) Summarize(_ context.Context, since time.Time) (*trade.OrderSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summary := &trade.OrderSummary{SalesSince: decimal.Zero}
	for _, o := range r.orders {
		if !o.IsSynced() {
			summary.UnsyncedOrders++
		}
		if o.Status != trade.OrderStatusCompleted {
			continue
		}
		summary.CompletedOrders++
		if !o.CreatedAt.Before(since) {
			summary.OrdersSince++
			summary.SalesSince = summary.SalesSince.Add(o.Total)
		}
	}
	return summary, nil
}

var _ trade.PosOrderRepository = (*PosOrderRepository)(nil)
