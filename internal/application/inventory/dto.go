package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/storepos/backend/internal/domain/inventory"
)

// AdjustStockRequest represents a stock adjustment entered at the till.
// Amount is checked by the ledger so a non-positive value is an invalid adjustment.
type AdjustStockRequest struct {
	Type   string `json:"type" binding:"required"`
	Amount int    `json:"amount"`
	Notes  string `json:"notes" binding:"max=500"`
}

// StockAdjustmentResponse represents an adjustment record in API responses
type StockAdjustmentResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      int64     `json:"product_id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	Type           string    `json:"type"`
	Amount         int       `json:"amount"`
	Delta          int       `json:"delta"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToStockAdjustmentResponse converts a domain StockAdjustment to its response
func ToStockAdjustmentResponse(a *inventory.StockAdjustment) StockAdjustmentResponse {
	return StockAdjustmentResponse{
		ID:             a.ID,
		ProductID:      a.ProductID,
		UserID:         a.ActorID,
		UserName:       a.ActorName,
		Type:           a.Kind.String(),
		Amount:         a.Magnitude,
		Delta:          a.Delta,
		QuantityBefore: a.QuantityBefore,
		QuantityAfter:  a.QuantityAfter,
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
	}
}

// ToStockAdjustmentResponses converts a slice of adjustments
func ToStockAdjustmentResponses(items []inventory.StockAdjustment) []StockAdjustmentResponse {
	responses := make([]StockAdjustmentResponse, len(items))
	for i := range items {
		responses[i] = ToStockAdjustmentResponse(&items[i])
	}
	return responses
}
