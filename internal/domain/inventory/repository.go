package inventory

import "context"

// StockAdjustmentRepository is the append-only store of adjustment records.
// There is deliberately no update or delete.
type StockAdjustmentRepository interface {
	// Append records a new adjustment
	Append(ctx context.Context, adjustment *StockAdjustment) error

	// ListForProduct returns adjustments for a product, newest first
	ListForProduct(ctx context.Context, productID int64, limit int) ([]StockAdjustment, error)
}
