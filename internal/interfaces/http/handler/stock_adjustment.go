package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/storepos/backend/internal/application/inventory"
	"github.com/storepos/backend/internal/domain/inventory"
)

// StockAdjuster records stock changes against the cache
type StockAdjuster interface {
	Adjust(ctx context.Context, cmd inventoryapp.AdjustCommand) (*inventory.StockAdjustment, error)
	ListForProduct(ctx context.Context, productID int64, limit int) ([]inventory.StockAdjustment, error)
}

// StockAdjustmentHandler handles stock adjustment HTTP requests
type StockAdjustmentHandler struct {
	BaseHandler
	ledger StockAdjuster
}

// NewStockAdjustmentHandler creates a new StockAdjustmentHandler
func NewStockAdjustmentHandler(ledger StockAdjuster) *StockAdjustmentHandler {
	return &StockAdjustmentHandler{ledger: ledger}
}

// Adjust applies an add, remove or set on behalf of the signed-in cashier.
// POST /products/:id/stock-adjustments
func (h *StockAdjustmentHandler) Adjust(c *gin.Context) {
	productID, ok := h.int64Param(c, "id")
	if !ok {
		return
	}
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req inventoryapp.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	adj, err := h.ledger.Adjust(c.Request.Context(), inventoryapp.AdjustCommand{
		ProductID: productID,
		Kind:      inventory.AdjustmentKind(strings.ToLower(strings.TrimSpace(req.Type))),
		Magnitude: req.Amount,
		Actor:     inventory.Actor{ID: actor.ID, Name: actor.DisplayName},
		Notes:     req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inventoryapp.ToStockAdjustmentResponse(adj))
}

// ListForProduct returns a product's adjustments, newest first.
// GET /products/:id/stock-adjustments?limit=
func (h *StockAdjustmentHandler) ListForProduct(c *gin.Context) {
	productID, ok := h.int64Param(c, "id")
	if !ok {
		return
	}
	q, ok := bindLimitQuery(c)
	if !ok {
		return
	}

	items, err := h.ledger.ListForProduct(c.Request.Context(), productID, q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, inventoryapp.ToStockAdjustmentResponses(items), len(items), q.Limit)
}
