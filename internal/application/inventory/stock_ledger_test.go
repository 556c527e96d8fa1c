package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/inventory"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/infrastructure/cache"
	"github.com/storepos/backend/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockStockAdjustmentRepository is a mock implementation of inventory.StockAdjustmentRepository
type MockStockAdjustmentRepository struct {
	mock.Mock
}

func (m *MockStockAdjustmentRepository) Append(ctx context.Context, adjustment *inventory.StockAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

func (m *MockStockAdjustmentRepository) ListForProduct(ctx context.Context, productID int64, limit int) ([]inventory.StockAdjustment, error) {
	args := m.Called(ctx, productID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockAdjustment), args.Error(1)
}

// MockStockPusher is a mock implementation of StockPusher
type MockStockPusher struct {
	mock.Mock
}

func (m *MockStockPusher) PushStock(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

type recordedAdjustment struct {
	kind     string
	oversell bool
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedAdjustment
}

func (r *fakeRecorder) RecordStockAdjustment(_ context.Context, kind string, oversell bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedAdjustment{kind: kind, oversell: oversell})
}

func intPtr(v int) *int { return &v }

var cashier = inventory.Actor{ID: "u-1", Name: "Sam"}

func seedProduct(t *testing.T, store *cache.ProductStore, id int64, qty *int, managed bool) {
	t.Helper()
	require.NoError(t, store.Upsert(context.Background(), &catalog.Product{
		ID:            id,
		Name:          "Product",
		ManageStock:   managed,
		StockQuantity: qty,
	}))
}

func TestStockLedger_Adjust(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		start      int
		kind       inventory.AdjustmentKind
		magnitude  int
		wantDelta  int
		wantAfter  int
		wantStatus catalog.StockStatus
	}{
		{"add", 5, inventory.AdjustmentAdd, 3, 3, 8, catalog.StockStatusInStock},
		{"subtract", 5, inventory.AdjustmentSubtract, 2, -2, 3, catalog.StockStatusInStock},
		{"subtract below zero records oversell", 5, inventory.AdjustmentSubtract, 7, -7, -2, catalog.StockStatusOutOfStock},
		{"set", 5, inventory.AdjustmentSet, 12, 7, 12, catalog.StockStatusInStock},
		{"subtract to zero", 4, inventory.AdjustmentSubtract, 4, -4, 0, catalog.StockStatusOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := cache.NewProductStore()
			seedProduct(t, products, 1, intPtr(tt.start), true)
			ledger := NewStockLedger(products, memory.NewStockAdjustmentRepository())

			adj, err := ledger.Adjust(ctx, AdjustCommand{
				ProductID: 1, Kind: tt.kind, Magnitude: tt.magnitude, Actor: cashier, Notes: "count",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.start, adj.QuantityBefore)
			assert.Equal(t, tt.wantDelta, adj.Delta)
			assert.Equal(t, tt.wantAfter, adj.QuantityAfter)
			assert.Equal(t, adj.QuantityBefore+adj.Delta, adj.QuantityAfter)
			assert.Equal(t, "Sam", adj.ActorName)

			p, err := products.Get(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAfter, p.Quantity())
			assert.Equal(t, tt.wantStatus, p.StockStatus)
		})
	}
}

func TestStockLedger_Adjust_Rejections(t *testing.T) {
	ctx := context.Background()
	products := cache.NewProductStore()
	seedProduct(t, products, 1, intPtr(5), true)
	seedProduct(t, products, 2, nil, false)
	repo := new(MockStockAdjustmentRepository)
	ledger := NewStockLedger(products, repo)

	tests := []struct {
		name    string
		cmd     AdjustCommand
		wantErr error
	}{
		{"zero amount", AdjustCommand{ProductID: 1, Kind: inventory.AdjustmentAdd, Magnitude: 0}, shared.ErrInvalidAdjustment},
		{"negative amount", AdjustCommand{ProductID: 1, Kind: inventory.AdjustmentSet, Magnitude: -3}, shared.ErrInvalidAdjustment},
		{"unknown kind", AdjustCommand{ProductID: 1, Kind: "multiply", Magnitude: 2}, shared.ErrInvalidAdjustment},
		{"untracked product", AdjustCommand{ProductID: 2, Kind: inventory.AdjustmentAdd, Magnitude: 1}, shared.ErrInvalidAdjustment},
		{"missing product", AdjustCommand{ProductID: 3, Kind: inventory.AdjustmentAdd, Magnitude: 1}, shared.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Adjust(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	p, _ := products.Get(ctx, 1)
	assert.Equal(t, 5, p.Quantity())
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestStockLedger_Adjust_RevertsWhenAppendFails(t *testing.T) {
	ctx := context.Background()
	products := cache.NewProductStore()
	seedProduct(t, products, 1, intPtr(5), true)

	repo := new(MockStockAdjustmentRepository)
	repo.On("Append", ctx, mock.AnythingOfType("*inventory.StockAdjustment")).Return(errors.New("disk full"))

	core, logs := observer.New(zap.ErrorLevel)
	ledger := NewStockLedger(products, repo, WithLedgerLogger(zap.New(core)))

	_, err := ledger.Adjust(ctx, AdjustCommand{ProductID: 1, Kind: inventory.AdjustmentSubtract, Magnitude: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	p, err := products.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Quantity())
	assert.Zero(t, logs.Len())
}

func TestStockLedger_Adjust_SerializesPerProduct(t *testing.T) {
	ctx := context.Background()
	products := cache.NewProductStore()
	seedProduct(t, products, 1, intPtr(0), true)
	repo := memory.NewStockAdjustmentRepository()
	ledger := NewStockLedger(products, repo)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Adjust(ctx, AdjustCommand{ProductID: 1, Kind: inventory.AdjustmentAdd, Magnitude: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := products.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, workers, p.Quantity())

	history, err := ledger.ListForProduct(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, history, workers)
	seen := make(map[int]bool, workers)
	for _, a := range history {
		assert.Equal(t, a.QuantityBefore+1, a.QuantityAfter)
		assert.False(t, seen[a.QuantityAfter], "quantity %d recorded twice", a.QuantityAfter)
		seen[a.QuantityAfter] = true
	}
}

// refreshingStore replaces the catalog once, right after the ledger reads a product
type refreshingStore struct {
	*cache.ProductStore
	refresh []catalog.Product
	once    sync.Once
}

func (s *refreshingStore) Get(ctx context.Context, id int64) (*catalog.Product, error) {
	p, err := s.ProductStore.Get(ctx, id)
	s.once.Do(func() {
		_ = s.ProductStore.ReplaceAll(ctx, s.refresh)
	})
	return p, err
}

func TestStockLedger_Adjust_CatalogRefreshDuringAdjustment(t *testing.T) {
	ctx := context.Background()
	products := cache.NewProductStore()
	seedProduct(t, products, 1, intPtr(5), true)
	store := &refreshingStore{
		ProductStore: products,
		refresh: []catalog.Product{
			{ID: 1, Name: "Product", ManageStock: true, StockQuantity: intPtr(10)},
		},
	}
	ledger := NewStockLedger(store, memory.NewStockAdjustmentRepository())

	adj, err := ledger.Adjust(ctx, AdjustCommand{ProductID: 1, Kind: inventory.AdjustmentAdd, Magnitude: 3})
	require.NoError(t, err)
	assert.Equal(t, 10, adj.QuantityBefore, "audit describes the refreshed quantity")
	assert.Equal(t, 13, adj.QuantityAfter)

	p, err := products.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 13, p.Quantity())
}

func TestStockLedger_Adjust_MetricsAndAutoPush(t *testing.T) {
	ctx := context.Background()
	products := cache.NewProductStore()
	seedProduct(t, products, 1, intPtr(1), true)

	recorder := &fakeRecorder{}
	pusher := new(MockStockPusher)
	pusher.On("PushStock", ctx, int64(1)).Return(nil, shared.NewUpstreamUnavailable("down", nil)).Once()

	ledger := NewStockLedger(products, memory.NewStockAdjustmentRepository(),
		WithAdjustmentRecorder(recorder),
		WithAutoPush(pusher),
	)

	adj, err := ledger.Adjust(ctx, AdjustCommand{ProductID: 1, Kind: inventory.AdjustmentSubtract, Magnitude: 3})
	require.NoError(t, err, "a failed push never fails the adjustment")
	assert.Equal(t, -2, adj.QuantityAfter)

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, recordedAdjustment{kind: "subtract", oversell: true}, recorder.calls[0])
	pusher.AssertExpectations(t)
}

func TestStockLedger_ListForProduct(t *testing.T) {
	ctx := context.Background()
	products := cache.NewProductStore()
	seedProduct(t, products, 1, intPtr(0), true)

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ledger := NewStockLedger(products, memory.NewStockAdjustmentRepository(), WithLedgerClock(clock))

	for i := 1; i <= 3; i++ {
		_, err := ledger.Adjust(ctx, AdjustCommand{ProductID: 1, Kind: inventory.AdjustmentSet, Magnitude: i * 10})
		require.NoError(t, err)
	}

	history, err := ledger.ListForProduct(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 30, history[0].QuantityAfter)
	assert.Equal(t, 20, history[1].QuantityAfter)

	t.Run("limit is capped", func(t *testing.T) {
		repo := new(MockStockAdjustmentRepository)
		repo.On("ListForProduct", ctx, int64(1), 500).Return([]inventory.StockAdjustment{}, nil)
		_, err := NewStockLedger(products, repo).ListForProduct(ctx, 1, 10_000)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("invalid product id", func(t *testing.T) {
		_, err := ledger.ListForProduct(ctx, 0, 10)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
