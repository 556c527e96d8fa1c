package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold applies when no threshold is configured
const DefaultLowStockThreshold = 10

// DashboardStats are the till's headline figures
type DashboardStats struct {
	TodaySales     decimal.Decimal `json:"today_sales"`
	TodayOrders    int64           `json:"today_orders"`
	TotalOrders    int64           `json:"total_orders"`
	UnsyncedOrders int64           `json:"unsynced_orders"`
	TotalProducts  int64           `json:"total_products"`
	TotalCustomers int64           `json:"total_customers"`
	LowStockCount  int64           `json:"low_stock_count"`
	LowStockBelow  int             `json:"low_stock_below"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// DashboardOption configures a DashboardService
type DashboardOption func(*DashboardService)

// WithLowStockThreshold sets the quantity under which a tracked product counts as low
func WithLowStockThreshold(threshold int) DashboardOption {
	return func(s *DashboardService) {
		if threshold > 0 {
			s.lowStock = threshold
		}
	}
}

// WithDashboardClock overrides the time source
func WithDashboardClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) {
		s.now = now
	}
}

// WithDashboardLogger sets the logger
func WithDashboardLogger(logger *zap.Logger) DashboardOption {
	return func(s *DashboardService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// DashboardService aggregates order ledger and catalog cache figures
type DashboardService struct {
	orders    trade.PosOrderRepository
	products  catalog.ProductStore
	customers catalog.CustomerStore
	lowStock  int
	now       func() time.Time
	logger    *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	orders trade.PosOrderRepository,
	products catalog.ProductStore,
	customers catalog.CustomerStore,
	opts ...DashboardOption,
) *DashboardService {
	s := &DashboardService{
		orders:    orders,
		products:  products,
		customers: customers,
		lowStock:  DefaultLowStockThreshold,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats computes the dashboard figures. "Today" starts at local midnight.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	summary, err := s.orders.Summarize(ctx, StartOfDay(now))
	if err != nil {
		return nil, err
	}
	productCount, err := s.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	customerCount, err := s.customers.Count(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.countLowStock(ctx, productCount)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TodaySales:     summary.SalesSince,
		TodayOrders:    summary.OrdersSince,
		TotalOrders:    summary.CompletedOrders,
		UnsyncedOrders: summary.UnsyncedOrders,
		TotalProducts:  productCount,
		TotalCustomers: customerCount,
		LowStockCount:  lowStock,
		LowStockBelow:  s.lowStock,
		GeneratedAt:    now,
	}, nil
}

func (s *DashboardService) countLowStock(ctx context.Context, total int64) (int64, error) {
	if total == 0 {
		return 0, nil
	}
	products, err := s.products.List(ctx, int(total))
	if err != nil {
		return 0, err
	}
	var n int64
	for i := range products {
		p := &products[i]
		if p.ManageStock && p.Quantity() < s.lowStock {
			n++
		}
	}
	return n, nil
}

// StartOfDay returns local midnight of t's day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
