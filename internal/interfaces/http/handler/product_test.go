package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	catalogapp "github.com/storepos/backend/internal/application/catalog"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testProduct(id int64, qty int) *catalog.Product {
	return &catalog.Product{
		ID:            id,
		Name:          "Oat Milk 1L",
		SKU:           "OAT-1L",
		Price:         decimal.RequireFromString("3.49"),
		RegularPrice:  decimal.RequireFromString("3.49"),
		Status:        "publish",
		StockStatus:   catalog.StockStatusInStock,
		StockQuantity: &qty,
		ManageStock:   true,
	}
}

func setupProductRouter(catalogSvc ProductCatalog) *gin.Engine {
	h := NewProductHandler(catalogSvc)
	router := newTestRouter(testCashier("cashier"))
	router.GET("/products", h.List)
	router.GET("/products/:id", h.Get)
	router.GET("/products/barcode/:code", h.GetByBarcode)
	router.PUT("/products/:id/price", h.UpdatePrice)
	router.POST("/products/:id/stock/push", h.PushStock)
	router.POST("/products/sync", h.Sync)
	return router
}

func TestProductHandler_List(t *testing.T) {
	svc := new(MockProductCatalog)
	svc.On("ListProducts", mock.Anything, "oat", 20).
		Return([]catalog.Product{*testProduct(1, 5), *testProduct(2, 0)}, nil)

	w, resp := doJSON(setupProductRouter(svc), http.MethodGet, "/products?search=%20oat%20&limit=20", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.Limit)

	var items []catalogapp.ProductResponse
	decodeData(t, resp, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "OAT-1L", items[0].SKU)
	svc.AssertExpectations(t)
}

func TestProductHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := new(MockProductCatalog)
		svc.On("GetProduct", mock.Anything, int64(7)).Return(testProduct(7, 12), nil)

		w, resp := doJSON(setupProductRouter(svc), http.MethodGet, "/products/7", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var p catalogapp.ProductResponse
		decodeData(t, resp, &p)
		assert.Equal(t, int64(7), p.ID)
		require.NotNil(t, p.StockQuantity)
		assert.Equal(t, 12, *p.StockQuantity)
		assert.True(t, p.EffectivePrice.Equal(decimal.RequireFromString("3.49")))
	})

	t.Run("missing", func(t *testing.T) {
		svc := new(MockProductCatalog)
		svc.On("GetProduct", mock.Anything, int64(8)).Return(nil, shared.NewNotFound("product 8 not found"))

		w, resp := doJSON(setupProductRouter(svc), http.MethodGet, "/products/8", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, shared.CodeNotFound, resp.Error.Code)
	})

	t.Run("upstream down on miss", func(t *testing.T) {
		svc := new(MockProductCatalog)
		svc.On("GetProduct", mock.Anything, int64(9)).
			Return(nil, shared.NewUpstreamUnavailable("commerce platform unreachable", nil))

		w, resp := doJSON(setupProductRouter(svc), http.MethodGet, "/products/9", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, shared.CodeUpstreamUnavailable, resp.Error.Code)
	})

	t.Run("bad id never reaches the catalog", func(t *testing.T) {
		svc := new(MockProductCatalog)

		w, _ := doJSON(setupProductRouter(svc), http.MethodGet, "/products/-3", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything)
	})
}

func TestProductHandler_GetByBarcode(t *testing.T) {
	svc := new(MockProductCatalog)
	svc.On("FindByBarcode", mock.Anything, "OAT-1L").Return(testProduct(1, 3), nil)

	w, resp := doJSON(setupProductRouter(svc), http.MethodGet, "/products/barcode/OAT-1L", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var p catalogapp.ProductResponse
	decodeData(t, resp, &p)
	assert.Equal(t, int64(1), p.ID)
}

func TestProductHandler_UpdatePrice(t *testing.T) {
	t.Run("forwards the request", func(t *testing.T) {
		svc := new(MockProductCatalog)
		updated := testProduct(4, 1)
		updated.Price = decimal.RequireFromString("2.99")
		svc.On("UpdatePrice", mock.Anything, int64(4), mock.MatchedBy(func(req catalogapp.UpdatePriceRequest) bool {
			return req.Price != nil && req.Price.Equal(decimal.RequireFromString("2.99"))
		})).Return(updated, nil)

		w, resp := doJSON(setupProductRouter(svc), http.MethodPut, "/products/4/price", `{"price":"2.99"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var p catalogapp.ProductResponse
		decodeData(t, resp, &p)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("2.99")))
		svc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockProductCatalog)

		w, resp := doJSON(setupProductRouter(svc), http.MethodPut, "/products/4/price", `{"price":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	})

	t.Run("upstream rejects", func(t *testing.T) {
		svc := new(MockProductCatalog)
		svc.On("UpdatePrice", mock.Anything, int64(4), mock.Anything).
			Return(nil, shared.NewUpstreamRejected("regular_price is invalid"))

		w, resp := doJSON(setupProductRouter(svc), http.MethodPut, "/products/4/price", `{"regular_price":"-1"}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "regular_price is invalid", resp.Error.Message)
	})
}

func TestProductHandler_PushStock(t *testing.T) {
	svc := new(MockProductCatalog)
	svc.On("PushStock", mock.Anything, int64(3)).Return(testProduct(3, 9), nil)

	w, _ := doJSON(setupProductRouter(svc), http.MethodPost, "/products/3/stock/push", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestProductHandler_Sync(t *testing.T) {
	t.Run("reports the count", func(t *testing.T) {
		svc := new(MockProductCatalog)
		svc.On("SyncProducts", mock.Anything).Return(240, nil)

		w, resp := doJSON(setupProductRouter(svc), http.MethodPost, "/products/sync", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var out catalogapp.SyncResponse
		decodeData(t, resp, &out)
		assert.Equal(t, 240, out.Count)
		assert.False(t, out.SyncedAt.IsZero())
	})

	t.Run("upstream down", func(t *testing.T) {
		svc := new(MockProductCatalog)
		svc.On("SyncProducts", mock.Anything).Return(0, shared.NewUpstreamUnavailable("timeout", nil))

		w, _ := doJSON(setupProductRouter(svc), http.MethodPost, "/products/sync", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
