package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/storepos/backend/internal/application/catalog"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared"
)

// ProductCatalog is the product side of the catalog cache
type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	FindByBarcode(ctx context.Context, code string) (*catalog.Product, error)
	ListProducts(ctx context.Context, search string, limit int) ([]catalog.Product, error)
	SyncProducts(ctx context.Context) (int, error)
	UpdatePrice(ctx context.Context, id int64, req catalogapp.UpdatePriceRequest) (*catalog.Product, error)
	PushStock(ctx context.Context, id int64) (*catalog.Product, error)
}

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	BaseHandler
	catalog ProductCatalog
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog ProductCatalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List returns cached products filtered by name or SKU.
// GET /products?search=&limit=
func (h *ProductHandler) List(c *gin.Context) {
	q, ok := bindLimitQuery(c)
	if !ok {
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), strings.TrimSpace(q.Search), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, catalogapp.ToProductResponses(products), len(products), q.Limit)
}

// Get returns one product, consulting upstream on a cache miss.
// GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.int64Param(c, "id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ToProductResponse(product))
}

// GetByBarcode resolves a scanned code against SKUs.
// GET /products/barcode/:code
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		h.HandleError(c, shared.NewInvalidInput("barcode is required"))
		return
	}

	product, err := h.catalog.FindByBarcode(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ToProductResponse(product))
}

// UpdatePrice writes price fields upstream and into the cache.
// PUT /products/:id/price
func (h *ProductHandler) UpdatePrice(c *gin.Context) {
	id, ok := h.int64Param(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdatePriceRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalog.UpdatePrice(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ToProductResponse(product))
}

// PushStock sends the cached quantity upstream.
// POST /products/:id/stock/push
func (h *ProductHandler) PushStock(c *gin.Context) {
	id, ok := h.int64Param(c, "id")
	if !ok {
		return
	}

	product, err := h.catalog.PushStock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ToProductResponse(product))
}

// Sync refreshes the whole product cache from upstream.
// POST /products/sync
func (h *ProductHandler) Sync(c *gin.Context) {
	count, err := h.catalog.SyncProducts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.SyncResponse{Count: count, SyncedAt: time.Now().UTC()})
}
