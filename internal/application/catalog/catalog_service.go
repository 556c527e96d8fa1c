package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/integration"
	"github.com/storepos/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MissPolicy decides what a cache miss costs
type MissPolicy string

const (
	// MissPolicySingle fetches just the missing record from upstream
	MissPolicySingle MissPolicy = "single"
	// MissPolicyBulk runs a full paginated refresh, then re-reads the cache
	MissPolicyBulk MissPolicy = "bulk"
)

// ParseMissPolicy converts a configured value, defaulting to single
func ParseMissPolicy(s string) MissPolicy {
	if MissPolicy(strings.ToLower(strings.TrimSpace(s))) == MissPolicyBulk {
		return MissPolicyBulk
	}
	return MissPolicySingle
}

const (
	defaultListLimit    = 50
	maxListLimit        = 1000
	publishStatus       = "publish"
	defaultFetchTimeout = 2 * time.Minute
)

// LookupRecorder observes cache hits and misses
type LookupRecorder interface {
	RecordCacheLookup(ctx context.Context, entity string, hit bool)
}

// Option configures a CatalogService
type Option func(*CatalogService)

// WithMissPolicy sets how misses are resolved
func WithMissPolicy(policy MissPolicy) Option {
	return func(s *CatalogService) {
		s.policy = policy
	}
}

// WithPageSize sets the upstream page size used by full refreshes
func WithPageSize(size int) Option {
	return func(s *CatalogService) {
		if size > 0 && size <= integration.MaxPageSize {
			s.pageSize = size
		}
	}
}

// WithListLimit sets the default listing size
func WithListLimit(limit int) Option {
	return func(s *CatalogService) {
		if limit > 0 {
			s.listLimit = limit
		}
	}
}

// WithFetchTimeout bounds a shared upstream fetch, which runs detached from
// the caller that started it
func WithFetchTimeout(d time.Duration) Option {
	return func(s *CatalogService) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *CatalogService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLookupRecorder sets the cache lookup metrics sink
func WithLookupRecorder(recorder LookupRecorder) Option {
	return func(s *CatalogService) {
		s.recorder = recorder
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *CatalogService) {
		s.now = now
	}
}

// CatalogService is the read-through layer over the product and customer
// caches. The caches never call the network; this service decides when a
// miss is worth an upstream round trip.
type CatalogService struct {
	products  catalog.ProductStore
	customers catalog.CustomerStore
	platform  integration.CommercePlatform
	policy    MissPolicy
	pageSize  int
	listLimit int
	group     singleflight.Group
	logger    *zap.Logger
	recorder  LookupRecorder
	now       func() time.Time

	// fetchTimeout bounds work shared through group
	fetchTimeout time.Duration
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	products catalog.ProductStore,
	customers catalog.CustomerStore,
	platform integration.CommercePlatform,
	opts ...Option,
) *CatalogService {
	s := &CatalogService{
		products:  products,
		customers: customers,
		platform:  platform,
		policy:    MissPolicySingle,
		pageSize:  integration.MaxPageSize,
		listLimit: defaultListLimit,
		logger:    zap.NewNop(),
		now:       time.Now,

		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MissPolicy returns the active miss policy
func (s *CatalogService) MissPolicy() MissPolicy {
	return s.policy
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// GetProduct returns a product from the cache, resolving a miss through the
// configured policy. Concurrent misses for the same id share one fetch.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	if id <= 0 {
		return nil, shared.NewInvalidInput("product id must be positive")
	}
	product, err := s.products.Get(ctx, id)
	if err == nil {
		s.recordLookup(ctx, "product", true)
		return product, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	s.recordLookup(ctx, "product", false)

	if s.policy == MissPolicyBulk {
		if _, err := s.refreshProducts(ctx); err != nil {
			return nil, missError(err)
		}
		return s.products.Get(ctx, id)
	}

	v, err := s.shareFetch(ctx, "product:"+strconv.FormatInt(id, 10), func(ctx context.Context) (any, error) {
		remote, err := s.platform.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.storeProduct(ctx, remote)
	})
	if err != nil {
		return nil, missError(err)
	}
	product = sharedResult(v)
	return product, nil
}

// FindByBarcode looks a product up by exact SKU
func (s *CatalogService) FindByBarcode(ctx context.Context, code string) (*catalog.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewInvalidInput("barcode is required")
	}
	product, err := s.products.GetBySKU(ctx, code)
	if err == nil {
		s.recordLookup(ctx, "product", true)
		return product, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	s.recordLookup(ctx, "product", false)

	if s.policy == MissPolicyBulk {
		if _, err := s.refreshProducts(ctx); err != nil {
			return nil, missError(err)
		}
		return s.products.GetBySKU(ctx, code)
	}

	v, err := s.shareFetch(ctx, "sku:"+code, func(ctx context.Context) (any, error) {
		page, err := s.platform.ListProducts(ctx, integration.ProductQuery{Page: 1, PerPage: 10, SKU: code})
		if err != nil {
			return nil, err
		}
		for i := range page {
			if strings.TrimSpace(page[i].SKU) == code {
				return s.storeProduct(ctx, &page[i])
			}
		}
		return nil, shared.NewNotFound(fmt.Sprintf("no product with barcode %q", code))
	})
	if err != nil {
		return nil, missError(err)
	}
	product = sharedResult(v)
	return product, nil
}

// ListProducts lists or searches the cache. An empty cache is treated as a
// miss: bulk refreshes everything, single pulls one upstream page.
func (s *CatalogService) ListProducts(ctx context.Context, search string, limit int) ([]catalog.Product, error) {
	limit = s.clampLimit(limit)
	products, err := s.queryProducts(ctx, search, limit)
	if err != nil || len(products) > 0 {
		return products, err
	}
	count, err := s.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return products, nil
	}
	s.recordLookup(ctx, "product_list", false)

	if s.policy == MissPolicyBulk {
		if _, err := s.refreshProducts(ctx); err != nil {
			return nil, missError(err)
		}
		return s.queryProducts(ctx, search, limit)
	}

	page, err := s.platform.ListProducts(ctx, integration.ProductQuery{
		Page:    1,
		PerPage: s.pageSize,
		Search:  strings.TrimSpace(search),
		Status:  publishStatus,
	})
	if err != nil {
		return nil, missError(err)
	}
	result := make([]catalog.Product, 0, len(page))
	for i := range page {
		stored, err := s.storeProduct(ctx, &page[i])
		if err != nil {
			s.logger.Warn("Skipping upstream product", zap.Int64("product_id", page[i].ID), zap.Error(err))
			continue
		}
		if len(result) < limit {
			result = append(result, *stored)
		}
	}
	return result, nil
}

// SyncProducts replaces the product cache with a full paginated upstream read
// and returns how many products were stored.
func (s *CatalogService) SyncProducts(ctx context.Context) (int, error) {
	return s.refreshProducts(ctx)
}

// refreshProducts runs at most one full refresh at a time; callers arriving
// during a refresh wait for its result.
func (s *CatalogService) refreshProducts(ctx context.Context) (int, error) {
	v, err := s.shareFetch(ctx, "sync:products", func(ctx context.Context) (any, error) {
		start := s.now()
		products, err := s.fetchAllProducts(ctx)
		if err != nil {
			return 0, err
		}
		if err := s.products.ReplaceAll(ctx, products); err != nil {
			return 0, fmt.Errorf("replace product cache: %w", err)
		}
		s.logger.Info("Product cache refreshed",
			zap.Int("count", len(products)),
			zap.Duration("duration", s.now().Sub(start)),
		)
		return len(products), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (s *CatalogService) fetchAllProducts(ctx context.Context) ([]catalog.Product, error) {
	now := s.now()
	var products []catalog.Product
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, shared.NewUpstreamUnavailable("product refresh cancelled", err)
		}
		batch, err := s.platform.ListProducts(ctx, integration.ProductQuery{
			Page:    page,
			PerPage: s.pageSize,
			Status:  publishStatus,
		})
		if err != nil {
			return nil, err
		}
		for i := range batch {
			product, err := batch[i].ToProduct(now)
			if err != nil {
				s.logger.Warn("Skipping upstream product", zap.Int64("product_id", batch[i].ID), zap.Error(err))
				continue
			}
			products = append(products, product)
		}
		if len(batch) < s.pageSize {
			return products, nil
		}
	}
}

// UpdatePrice applies a price edit to the cache
func (s *CatalogService) UpdatePrice(ctx context.Context, id int64, req UpdatePriceRequest) (*catalog.Product, error) {
	prices := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"price", req.Price},
		{"regular_price", req.RegularPrice},
		{"sale_price", req.SalePrice},
	}
	for _, p := range prices {
		if p.value != nil && p.value.IsNegative() {
			return nil, shared.NewInvalidInput(p.name + " must not be negative")
		}
	}
	patch := catalog.ProductPatch{
		Name:         req.Name,
		Price:        req.Price,
		RegularPrice: req.RegularPrice,
		SalePrice:    req.SalePrice,
		OnSale:       req.OnSale,
	}
	if patch.IsEmpty() {
		return nil, shared.NewInvalidInput("nothing to update")
	}
	return s.products.Patch(ctx, id, patch)
}

// PushStock sends the cached quantity upstream. The ledger owns the quantity,
// so the upstream answer never overwrites it; only LastSyncAt is recorded.
func (s *CatalogService) PushStock(ctx context.Context, id int64) (*catalog.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.ManageStock {
		return nil, shared.NewInvalidInput(fmt.Sprintf("product %d does not track stock", id))
	}
	if _, err := s.platform.UpdateProductStock(ctx, id, product.Quantity()); err != nil {
		return nil, err
	}
	now := s.now()
	return s.products.Patch(ctx, id, catalog.ProductPatch{LastSyncAt: &now})
}

// CountProducts returns the number of cached products
func (s *CatalogService) CountProducts(ctx context.Context) (int64, error) {
	return s.products.Count(ctx)
}

func (s *CatalogService) queryProducts(ctx context.Context, search string, limit int) ([]catalog.Product, error) {
	if strings.TrimSpace(search) != "" {
		return s.products.Search(ctx, search, limit)
	}
	return s.products.List(ctx, limit)
}

func (s *CatalogService) storeProduct(ctx context.Context, remote *integration.PlatformProduct) (*catalog.Product, error) {
	product, err := remote.ToProduct(s.now())
	if err != nil {
		return nil, shared.NewUpstreamUnavailable("upstream product is malformed", err)
	}
	if err := s.products.Upsert(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// shareFetch runs fn once per key for all concurrent callers. fn gets a
// context detached from whichever caller started it, so one cancelled request
// cannot fail the others; each caller still stops waiting when its own ctx ends.
func (s *CatalogService) shareFetch(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return fn(fetchCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, shared.NewUpstreamUnavailable("gave up waiting for "+key, ctx.Err())
	}
}

// sharedResult copies a singleflight result so callers never alias each other
func sharedResult(v any) *catalog.Product {
	p := v.(*catalog.Product).Clone()
	return &p
}

func (s *CatalogService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.listLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (s *CatalogService) recordLookup(ctx context.Context, entity string, hit bool) {
	if s.recorder != nil {
		s.recorder.RecordCacheLookup(ctx, entity, hit)
	}
}

// missError turns an unreachable upstream during a cache miss into
// "no data available"; every other error passes through.
func missError(err error) error {
	if errors.Is(err, shared.ErrUpstreamUnavailable) {
		return shared.WrapDomainError(shared.CodeNoDataAvailable, "no data available: not cached and commerce platform unreachable", err)
	}
	return err
}
