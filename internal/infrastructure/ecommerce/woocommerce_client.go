package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/storepos/backend/internal/domain/integration"
	"github.com/storepos/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize is the maximum allowed response size from the store (10MB)
const (
	maxResponseSize = 10 * 1024 * 1024

	// till and store clocks may disagree
	orderLookupSkew     = time.Hour
	maxOrderLookupPages = 20
)

// RequestRecorder observes every upstream call, e.g. for latency metrics
type RequestRecorder interface {
	RecordUpstreamRequest(ctx context.Context, operation string, statusCode int, duration time.Duration)
}

// ClientOption configures a WooCommerceClient
type ClientOption func(*WooCommerceClient)

// WithClientLogger sets the logger
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *WooCommerceClient) {
		c.logger = logger
	}
}

// WithRequestRecorder sets the request observer
func WithRequestRecorder(r RequestRecorder) ClientOption {
	return func(c *WooCommerceClient) {
		c.recorder = r
	}
}

// WithTransport replaces the HTTP transport, mainly for tests
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *WooCommerceClient) {
		c.transport = rt
	}
}

// connection is swapped as a whole on Reload
type connection struct {
	config     WooCommerceConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// WooCommerceClient implements integration.CommercePlatform over the
// WooCommerce REST API v3 with HTTP Basic auth. It never retries.
type WooCommerceClient struct {
	mu        sync.RWMutex
	conn      *connection // nil when unconfigured
	transport http.RoundTripper
	validate  *validator.Validate
	logger    *zap.Logger
	recorder  RequestRecorder
}

// NewWooCommerceClient creates a client. An empty configuration yields a
// client whose calls fail with ErrPlatformNotConfigured until Reload.
func NewWooCommerceClient(cfg WooCommerceConfig, opts ...ClientOption) (*WooCommerceClient, error) {
	c := &WooCommerceClient{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !cfg.IsConfigured() {
		c.logger.Warn("WooCommerce store is not configured; upstream calls will fail until settings are saved")
		return c, nil
	}
	if err := c.Reload(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload validates cfg and atomically swaps the store URL, credentials,
// timeout and rate limit. In-flight calls finish on the old connection.
func (c *WooCommerceClient) Reload(cfg WooCommerceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	conn := &connection{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: c.transport},
	}
	if cfg.RateLimit > 0 {
		conn.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("WooCommerce connection configured",
		zap.String("store_url", cfg.StoreURL),
		zap.Duration("timeout", cfg.Timeout),
	)
	return nil
}

// Config returns the active configuration and whether one is set
func (c *WooCommerceClient) Config() (WooCommerceConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return WooCommerceConfig{}, false
	}
	return c.conn.config, true
}

func (c *WooCommerceClient) connection() (*connection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return nil, integration.ErrPlatformNotConfigured
	}
	return c.conn, nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ListProducts returns one page of products
func (c *WooCommerceClient) ListProducts(ctx context.Context, q integration.ProductQuery) ([]integration.PlatformProduct, error) {
	params := pageParams(q.Page, q.PerPage)
	setIf(params, "search", q.Search)
	setIf(params, "category", q.Category)
	setIf(params, "sku", q.SKU)
	setIf(params, "status", q.Status)

	var products []integration.PlatformProduct
	if err := c.doRequest(ctx, "list_products", http.MethodGet, "/products", params, nil, &products); err != nil {
		return nil, err
	}
	for i := range products {
		if err := c.check(&products[i]); err != nil {
			return nil, err
		}
	}
	return products, nil
}

// GetProduct returns a single product
func (c *WooCommerceClient) GetProduct(ctx context.Context, id int64) (*integration.PlatformProduct, error) {
	var product integration.PlatformProduct
	if err := c.doRequest(ctx, "get_product", http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, nil, &product); err != nil {
		return nil, err
	}
	if err := c.check(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProductStock sets the upstream stock quantity of a product
func (c *WooCommerceClient) UpdateProductStock(ctx context.Context, id int64, quantity int) (*integration.PlatformProduct, error) {
	body := integration.ProductStockUpdate{StockQuantity: quantity, ManageStock: true}
	var product integration.PlatformProduct
	if err := c.doRequest(ctx, "update_product_stock", http.MethodPut, "/products/"+strconv.FormatInt(id, 10), nil, body, &product); err != nil {
		return nil, err
	}
	if err := c.check(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// ListCustomers returns one page of customers
func (c *WooCommerceClient) ListCustomers(ctx context.Context, q integration.CustomerQuery) ([]integration.PlatformCustomer, error) {
	params := pageParams(q.Page, q.PerPage)
	setIf(params, "search", q.Search)
	setIf(params, "email", q.Email)

	var customers []integration.PlatformCustomer
	if err := c.doRequest(ctx, "list_customers", http.MethodGet, "/customers", params, nil, &customers); err != nil {
		return nil, err
	}
	for i := range customers {
		if err := c.check(&customers[i]); err != nil {
			return nil, err
		}
	}
	return customers, nil
}

// CreateCustomer creates a customer upstream
func (c *WooCommerceClient) CreateCustomer(ctx context.Context, req integration.CustomerCreateRequest) (*integration.PlatformCustomer, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, shared.NewInvalidInput(fmt.Sprintf("invalid customer: %v", err))
	}
	var customer integration.PlatformCustomer
	if err := c.doRequest(ctx, "create_customer", http.MethodPost, "/customers", nil, req, &customer); err != nil {
		return nil, err
	}
	if err := c.check(&customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// CreateOrder creates an order upstream. A success without a positive id is
// an invalid response, never a synced order.
func (c *WooCommerceClient) CreateOrder(ctx context.Context, req integration.OrderCreateRequest) (*integration.PlatformOrder, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, shared.NewInvalidOrder(fmt.Sprintf("order cannot be sent upstream: %v", err))
	}
	var order integration.PlatformOrder
	if err := c.doRequest(ctx, "create_order", http.MethodPost, "/orders", nil, req, &order); err != nil {
		return nil, err
	}
	if err := c.check(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns one page of upstream orders
func (c *WooCommerceClient) ListOrders(ctx context.Context, q integration.OrderQuery) ([]integration.PlatformOrder, error) {
	params := pageParams(q.Page, q.PerPage)
	setIf(params, "search", q.Search)
	setIf(params, "orderby", q.OrderBy)
	setIf(params, "order", q.Order)
	if !q.After.IsZero() {
		params.Set("after", q.After.UTC().Format(time.RFC3339))
	}

	var orders []integration.PlatformOrder
	if err := c.doRequest(ctx, "list_orders", http.MethodGet, "/orders", params, nil, &orders); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := c.check(&orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// FindOrderByPosID scans orders created since placedAt, oldest first, for one
// tagged with posOrderID. The order search endpoint does not index meta
// data, so the tag is matched here.
func (c *WooCommerceClient) FindOrderByPosID(ctx context.Context, posOrderID string, placedAt time.Time) (*integration.PlatformOrder, error) {
	query := integration.OrderQuery{
		PerPage: integration.MaxPageSize,
		OrderBy: "date",
		Order:   "asc",
	}
	if !placedAt.IsZero() {
		query.After = placedAt.Add(-orderLookupSkew)
	}
	for page := 1; page <= maxOrderLookupPages; page++ {
		query.Page = page
		orders, err := c.ListOrders(ctx, query)
		if err != nil {
			return nil, err
		}
		for i := range orders {
			if orders[i].PosOrderID() == posOrderID {
				return &orders[i], nil
			}
		}
		if len(orders) < query.PerPage {
			break
		}
	}
	return nil, shared.NewNotFound("no upstream order tagged " + posOrderID)
}

// SystemStatus returns the platform's environment report
func (c *WooCommerceClient) SystemStatus(ctx context.Context) (*integration.SystemStatus, error) {
	var status integration.SystemStatus
	if err := c.doRequest(ctx, "system_status", http.MethodGet, "/system_status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// wooError is the error body WooCommerce returns on failures
type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// doRequest performs one REST call and classifies its failure
func (c *WooCommerceClient) doRequest(ctx context.Context, op, method, path string, params url.Values, body, out any) error {
	conn, err := c.connection()
	if err != nil {
		return err
	}
	if conn.limiter != nil {
		if err := conn.limiter.Wait(ctx); err != nil {
			return shared.NewUpstreamUnavailable(op+": rate limiter", err)
		}
	}

	endpoint := conn.config.BaseURL() + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("woocommerce: encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.SetBasicAuth(conn.config.ConsumerKey, conn.config.ConsumerSecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := conn.httpClient.Do(req)
	if err != nil {
		c.record(ctx, op, 0, start)
		c.logger.Warn("WooCommerce request failed", zap.String("operation", op), zap.Error(err))
		return shared.NewUpstreamUnavailable("woocommerce "+op, err)
	}
	defer resp.Body.Close()
	c.record(ctx, op, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return shared.NewUpstreamUnavailable("woocommerce "+op+": read response", err)
	}

	if resp.StatusCode >= 300 {
		return classifyStatus(op, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return shared.WrapDomainError(shared.CodeUpstreamUnavailable, "woocommerce "+op+": undecodable response", err)
	}
	return nil
}

func classifyStatus(op string, status int, body []byte) error {
	var we wooError
	_ = json.Unmarshal(body, &we)
	msg := we.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	detail := fmt.Sprintf("woocommerce %s: HTTP %d: %s", op, status, msg)
	if we.Code != "" {
		detail += " (" + we.Code + ")"
	}

	switch {
	case status == http.StatusNotFound:
		return shared.NewNotFound(detail)
	case status >= 500, status == http.StatusTooManyRequests:
		return shared.NewUpstreamUnavailable(detail, nil)
	default:
		return shared.NewUpstreamRejected(detail)
	}
}

// check validates a decoded body against its schema
func (c *WooCommerceClient) check(v any) error {
	if err := c.validate.Struct(v); err != nil {
		return shared.WrapDomainError(shared.CodeUpstreamUnavailable, integration.ErrPlatformInvalidResponse.Message, err)
	}
	return nil
}

func (c *WooCommerceClient) record(ctx context.Context, op string, status int, start time.Time) {
	if c.recorder != nil {
		c.recorder.RecordUpstreamRequest(ctx, op, status, time.Since(start))
	}
}

func pageParams(page, perPage int) url.Values {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		if perPage > integration.MaxPageSize {
			perPage = integration.MaxPageSize
		}
		params.Set("per_page", strconv.Itoa(perPage))
	}
	return params
}

func setIf(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

// Ensure WooCommerceClient implements CommercePlatform
var _ integration.CommercePlatform = (*WooCommerceClient)(nil)
