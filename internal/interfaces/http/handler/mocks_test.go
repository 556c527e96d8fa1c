package handler

import (
	"context"

	"github.com/google/uuid"
	catalogapp "github.com/storepos/backend/internal/application/catalog"
	"github.com/storepos/backend/internal/application/identity"
	integrationapp "github.com/storepos/backend/internal/application/integration"
	inventoryapp "github.com/storepos/backend/internal/application/inventory"
	"github.com/storepos/backend/internal/application/report"
	tradeapp "github.com/storepos/backend/internal/application/trade"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/integration"
	"github.com/storepos/backend/internal/domain/inventory"
	"github.com/storepos/backend/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

// MockProductCatalog is a mock implementation of ProductCatalog
type MockProductCatalog struct {
	mock.Mock
}

func (m *MockProductCatalog) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductCatalog) FindByBarcode(ctx context.Context, code string) (*catalog.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductCatalog) ListProducts(ctx context.Context, search string, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, search, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductCatalog) SyncProducts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockProductCatalog) UpdatePrice(ctx context.Context, id int64, req catalogapp.UpdatePriceRequest) (*catalog.Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductCatalog) PushStock(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

// MockCustomerDirectory is a mock implementation of CustomerDirectory
type MockCustomerDirectory struct {
	mock.Mock
}

func (m *MockCustomerDirectory) GetCustomer(ctx context.Context, id int64) (*catalog.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Customer), args.Error(1)
}

func (m *MockCustomerDirectory) ListCustomers(ctx context.Context, search string, limit int) ([]catalog.Customer, error) {
	args := m.Called(ctx, search, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Customer), args.Error(1)
}

func (m *MockCustomerDirectory) SyncCustomers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCustomerDirectory) CreateCustomer(ctx context.Context, req catalogapp.CreateCustomerRequest) (*catalog.Customer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Customer), args.Error(1)
}

// MockStockAdjuster is a mock implementation of StockAdjuster
type MockStockAdjuster struct {
	mock.Mock
}

func (m *MockStockAdjuster) Adjust(ctx context.Context, cmd inventoryapp.AdjustCommand) (*inventory.StockAdjustment, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockAdjustment), args.Error(1)
}

func (m *MockStockAdjuster) ListForProduct(ctx context.Context, productID int64, limit int) ([]inventory.StockAdjustment, error) {
	args := m.Called(ctx, productID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockAdjustment), args.Error(1)
}

// MockCheckout is a mock implementation of Checkout
type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) Checkout(ctx context.Context, req tradeapp.CheckoutRequest, cashier tradeapp.Cashier) (*tradeapp.CheckoutResult, error) {
	args := m.Called(ctx, req, cashier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.CheckoutResult), args.Error(1)
}

func (m *MockCheckout) Quote(ctx context.Context, req tradeapp.CheckoutRequest) ([]trade.LineItem, trade.Totals, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, trade.Totals{}, args.Error(2)
	}
	return args.Get(0).([]trade.LineItem), args.Get(1).(trade.Totals), args.Error(2)
}

// MockOrderBook is a mock implementation of OrderBook
type MockOrderBook struct {
	mock.Mock
}

func (m *MockOrderBook) Get(ctx context.Context, id uuid.UUID) (*trade.PosOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PosOrder), args.Error(1)
}

func (m *MockOrderBook) GetByNumber(ctx context.Context, orderNumber string) (*trade.PosOrder, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PosOrder), args.Error(1)
}

// MockBackgroundSync is a mock implementation of BackgroundSync
type MockBackgroundSync struct {
	mock.Mock
}

func (m *MockBackgroundSync) TriggerNow() error {
	return m.Called().Error(0)
}

func (m *MockBackgroundSync) LastReport() *integrationapp.ReconcileReport {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*integrationapp.ReconcileReport)
}

func (m *MockOrderBook) ListRecent(ctx context.Context, limit int) ([]trade.PosOrder, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PosOrder), args.Error(1)
}

func (m *MockOrderBook) ListUnsynced(ctx context.Context) ([]trade.PosOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PosOrder), args.Error(1)
}

// MockReconciler is a mock implementation of Reconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileAll(ctx context.Context) (*integrationapp.ReconcileReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.ReconcileReport), args.Error(1)
}

func (m *MockReconciler) SyncOrder(ctx context.Context, id uuid.UUID) (integrationapp.SyncResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(integrationapp.SyncResult), args.Error(1)
}

func (m *MockReconciler) RecentUpstreamOrders(ctx context.Context, page, perPage int) ([]integration.PlatformOrder, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.PlatformOrder), args.Error(1)
}

// MockReceipts is a mock implementation of Receipts
type MockReceipts struct {
	mock.Mock
}

func (m *MockReceipts) Render(ctx context.Context, id uuid.UUID, format string) (*tradeapp.Receipt, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.Receipt), args.Error(1)
}

func (m *MockReceipts) MarkPrinted(ctx context.Context, id uuid.UUID) (*trade.PosOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PosOrder), args.Error(1)
}

func (m *MockReceipts) PDFEnabled() bool {
	return m.Called().Bool(0)
}

// MockStatsProvider is a mock implementation of StatsProvider
type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) Stats(ctx context.Context) (*report.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.DashboardStats), args.Error(1)
}

// MockSettingsManager is a mock implementation of SettingsManager
type MockSettingsManager struct {
	mock.Mock
}

func (m *MockSettingsManager) Get() integrationapp.SettingsResponse {
	return m.Called().Get(0).(integrationapp.SettingsResponse)
}

func (m *MockSettingsManager) UpdateUpstream(req integrationapp.UpdateUpstreamRequest) (integrationapp.SettingsResponse, error) {
	args := m.Called(req)
	return args.Get(0).(integrationapp.SettingsResponse), args.Error(1)
}

func (m *MockSettingsManager) TestConnection(ctx context.Context) (integrationapp.ConnectionTestResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(integrationapp.ConnectionTestResponse), args.Error(1)
}

// MockAuthenticator is a mock implementation of Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *MockAuthenticator) Logout(ctx context.Context, actor *identity.Actor) error {
	args := m.Called(ctx, actor)
	return args.Error(0)
}
