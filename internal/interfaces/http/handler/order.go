package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	integrationapp "github.com/storepos/backend/internal/application/integration"
	tradeapp "github.com/storepos/backend/internal/application/trade"
	"github.com/storepos/backend/internal/domain/integration"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/domain/trade"
	"github.com/storepos/backend/internal/infrastructure/scheduler"
	"github.com/storepos/backend/internal/interfaces/http/dto"
)

// Checkout commits sales
type Checkout interface {
	Checkout(ctx context.Context, req tradeapp.CheckoutRequest, cashier tradeapp.Cashier) (*tradeapp.CheckoutResult, error)
	Quote(ctx context.Context, req tradeapp.CheckoutRequest) ([]trade.LineItem, trade.Totals, error)
}

// OrderBook reads the local order ledger
type OrderBook interface {
	Get(ctx context.Context, id uuid.UUID) (*trade.PosOrder, error)
	GetByNumber(ctx context.Context, orderNumber string) (*trade.PosOrder, error)
	ListRecent(ctx context.Context, limit int) ([]trade.PosOrder, error)
	ListUnsynced(ctx context.Context) ([]trade.PosOrder, error)
}

// Reconciler pushes local orders upstream
type Reconciler interface {
	ReconcileAll(ctx context.Context) (*integrationapp.ReconcileReport, error)
	SyncOrder(ctx context.Context, id uuid.UUID) (integrationapp.SyncResult, error)
	RecentUpstreamOrders(ctx context.Context, page, perPage int) ([]integration.PlatformOrder, error)
}

// BackgroundSync is the periodic reconciliation loop
type BackgroundSync interface {
	TriggerNow() error
	LastReport() *integrationapp.ReconcileReport
}

// Receipts renders and tracks order receipts
type Receipts interface {
	Render(ctx context.Context, id uuid.UUID, format string) (*tradeapp.Receipt, error)
	MarkPrinted(ctx context.Context, id uuid.UUID) (*trade.PosOrder, error)
	PDFEnabled() bool
}

// OrderHandler handles POS order HTTP requests
type OrderHandler struct {
	BaseHandler
	checkout   Checkout
	orders     OrderBook
	reconciler Reconciler
	receipts   Receipts
	background BackgroundSync
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkout Checkout, orders OrderBook, reconciler Reconciler, receipts Receipts) *OrderHandler {
	return &OrderHandler{
		checkout:   checkout,
		orders:     orders,
		reconciler: reconciler,
		receipts:   receipts,
	}
}

// WithBackgroundSync enables queued passes and last-pass reports
func (h *OrderHandler) WithBackgroundSync(background BackgroundSync) *OrderHandler {
	h.background = background
	return h
}

// QuoteResponse is a priced cart that has not been committed
type QuoteResponse struct {
	Items    []trade.LineItem `json:"items"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Discount decimal.Decimal  `json:"discount"`
	Tax      decimal.Decimal  `json:"tax"`
	Total    decimal.Decimal  `json:"total"`
}

// Create commits a sale. A failed upstream push does not fail the request;
// the order is returned unsynced with the push error alongside.
// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req tradeapp.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), req, tradeapp.Cashier{
		ID:   actor.ID,
		Name: actor.DisplayName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := tradeapp.CheckoutResponse{Order: tradeapp.ToOrderResponse(result.Order)}
	if result.SyncError != nil {
		resp.SyncError = result.SyncError.Error()
	}
	h.Created(c, resp)
}

// Quote prices a cart without committing it.
// POST /orders/quote
func (h *OrderHandler) Quote(c *gin.Context) {
	var req tradeapp.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	items, totals, err := h.checkout.Quote(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, QuoteResponse{
		Items:    items,
		Subtotal: totals.Subtotal,
		Discount: totals.Discount,
		Tax:      totals.Tax,
		Total:    totals.Total,
	})
}

// List returns the most recent orders.
// GET /orders?limit=
func (h *OrderHandler) List(c *gin.Context) {
	q, ok := bindLimitQuery(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListRecent(c.Request.Context(), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, tradeapp.ToOrderResponses(orders), len(orders), q.Limit)
}

// ListUnsynced returns every order not yet accepted upstream, oldest first.
// GET /orders/unsynced
func (h *OrderHandler) ListUnsynced(c *gin.Context) {
	orders, err := h.orders.ListUnsynced(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, tradeapp.ToOrderResponses(orders), len(orders), 0)
}

// Get returns one order by id or receipt number.
// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	ref := c.Param("id")
	var (
		order *trade.PosOrder
		err   error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		order, err = h.orders.Get(c.Request.Context(), id)
	} else {
		order, err = h.orders.GetByNumber(c.Request.Context(), ref)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tradeapp.ToOrderResponse(order))
}

// orderID resolves an order id or receipt number path parameter to an id
func (h *OrderHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	ref := c.Param("id")
	if id, err := uuid.Parse(ref); err == nil {
		return id, true
	}
	order, err := h.orders.GetByNumber(c.Request.Context(), ref)
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	return order.ID, true
}

// SyncAll runs a reconciliation pass now and reports it. With async=true the
// pass is queued on the background loop instead.
// POST /orders/sync?async=
func (h *OrderHandler) SyncAll(c *gin.Context) {
	if async, _ := strconv.ParseBool(c.Query("async")); async {
		h.queueSync(c)
		return
	}
	report, err := h.reconciler.ReconcileAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, integrationapp.ToReconcileResponse(report))
}

func (h *OrderHandler) queueSync(c *gin.Context) {
	if h.background == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeNotConfigured, "background sync is disabled")
		return
	}
	switch err := h.background.TriggerNow(); {
	case err == nil:
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"queued": true}))
	case errors.Is(err, scheduler.ErrPassQueued):
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, err.Error())
	case errors.Is(err, scheduler.ErrTriggerNotRunning):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeNotConfigured, "background sync is not running")
	default:
		h.HandleError(c, err)
	}
}

// LastSync reports the latest completed background pass.
// GET /orders/sync/last
func (h *OrderHandler) LastSync(c *gin.Context) {
	if h.background == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeNotConfigured, "background sync is disabled")
		return
	}
	report := h.background.LastReport()
	if report == nil {
		h.HandleError(c, shared.NewNotFound("no background pass has completed yet"))
		return
	}
	h.Success(c, integrationapp.ToReconcileResponse(report))
}

// SyncOne pushes a single order. A push failure is reported in the body,
// except a concurrent push which is a 409.
// POST /orders/:id/sync
func (h *OrderHandler) SyncOne(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.reconciler.SyncOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if errors.Is(result.Err, integrationapp.ErrPushInProgress) {
		h.HandleError(c, result.Err)
		return
	}
	h.Success(c, integrationapp.ToSyncResultResponse(result))
}

// Upstream lists the newest orders as the commerce platform stores them.
// GET /orders/upstream?page=&per_page=
func (h *OrderHandler) Upstream(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	orders, err := h.reconciler.RecentUpstreamOrders(c.Request.Context(), page, perPage)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, integrationapp.ToUpstreamOrderResponses(orders), len(orders), perPage)
}

// Receipt streams the rendered receipt.
// GET /orders/:id/receipt?format=html|pdf
func (h *OrderHandler) Receipt(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", tradeapp.ReceiptFormatHTML)
	if format == tradeapp.ReceiptFormatPDF && !h.receipts.PDFEnabled() {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeNotConfigured, "PDF receipts are not enabled")
		return
	}

	receipt, err := h.receipts.Render(c.Request.Context(), id, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	disposition := "inline"
	if format == tradeapp.ReceiptFormatPDF {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition+`; filename="`+receipt.FileName+`"`)
	if receipt.ArchivedAt != "" {
		c.Header("X-Receipt-Archive", receipt.ArchivedAt)
	}
	c.Data(http.StatusOK, receipt.ContentType, receipt.Body)
}

// MarkPrinted records that the receipt came off the printer.
// POST /orders/:id/receipt/printed
func (h *OrderHandler) MarkPrinted(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.receipts.MarkPrinted(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tradeapp.ToOrderResponse(order))
}
