package memory

import (
	"context"
	"sync"

	"github.com/storepos/backend/internal/domain/inventory"
)

// StockAdjustmentRepository is an append-only in-memory audit trail
type StockAdjustmentRepository struct {
	mu        sync.RWMutex
	byProduct map[int64][]inventory.StockAdjustment
}

// NewStockAdjustmentRepository creates an empty in-memory audit trail
func NewStockAdjustmentRepository() *StockAdjustmentRepository {
	return &StockAdjustmentRepository{byProduct: make(map[int64][]inventory.StockAdjustment)}
}

// Append records a new adjustment
func (r *StockAdjustmentRepository) Append(_ context.Context, adjustment *inventory.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byProduct[adjustment.ProductID] = append(r.byProduct[adjustment.ProductID], *adjustment)
	return nil
}

// ListForProduct returns a product's adjustments, newest first
func (r *StockAdjustmentRepository) ListForProduct(_ context.Context, productID int64, limit int) ([]inventory.StockAdjustment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := r.byProduct[productID]
	n := len(records)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]inventory.StockAdjustment, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

var _ inventory.StockAdjustmentRepository = (*StockAdjustmentRepository)(nil)
