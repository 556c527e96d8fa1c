package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newTestProduct(id int64, name, sku string, qty *int) catalog.Product {
	return catalog.Product{
		ID:            id,
		Name:          name,
		SKU:           sku,
		Price:         decimal.RequireFromString("12.50"),
		RegularPrice:  decimal.RequireFromString("12.50"),
		Status:        "publish",
		ManageStock:   qty != nil,
		StockQuantity: qty,
		Categories:    []catalog.CategoryRef{{ID: 3, Name: "Tea", Slug: "tea"}},
	}
}

func TestGormProductRepository_GetAndSearch(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []catalog.Product{
		newTestProduct(1, "Green Tea", "TEA-001", intPtr(5)),
		newTestProduct(2, "Black Coffee", "COF-100", intPtr(0)),
		newTestProduct(3, "Gift Card", "GIFT_50", nil),
	}))

	t.Run("get by id", func(t *testing.T) {
		p, err := repo.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Green Tea", p.Name)
		assert.Equal(t, 5, p.Quantity())
		assert.Equal(t, catalog.StockStatusInStock, p.StockStatus)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("12.50")))
		assert.Equal(t, "Tea", p.Categories[0].Name)
	})

	t.Run("status derived on write", func(t *testing.T) {
		p, err := repo.Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, catalog.StockStatusOutOfStock, p.StockStatus)
	})

	t.Run("miss is not found", func(t *testing.T) {
		_, err := repo.Get(ctx, 99)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("sku is exact", func(t *testing.T) {
		p, err := repo.GetBySKU(ctx, "COF-100")
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.ID)

		_, err = repo.GetBySKU(ctx, "cof-100")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("search ignores case over name and sku", func(t *testing.T) {
		found, err := repo.Search(ctx, "TEA", 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, int64(1), found[0].ID)

		found, err = repo.Search(ctx, "cof-1", 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, int64(2), found[0].ID)
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		found, err := repo.Search(ctx, "_", 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, int64(3), found[0].ID)
	})

	t.Run("count", func(t *testing.T) {
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
}

func TestGormProductRepository_ReplaceAllLeavesNoStaleRows(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []catalog.Product{
		newTestProduct(1, "Old Blend", "OLD-1", intPtr(1)),
		newTestProduct(2, "Keep Me", "KEEP-1", intPtr(1)),
	}))
	require.NoError(t, repo.ReplaceAll(ctx, []catalog.Product{
		newTestProduct(2, "Keep Me Renamed", "KEEP-1", intPtr(4)),
		newTestProduct(5, "New Blend", "NEW-1", intPtr(2)),
	}))

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	found, err := repo.Search(ctx, "blend", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(5), found[0].ID)

	p, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Keep Me Renamed", p.Name)
}

func TestGormProductRepository_UpsertPatchDelete(t *testing.T) {
	repo := NewGormProductRepository(setupTestDB(t))
	ctx := context.Background()

	p := newTestProduct(7, "Matcha", "MAT-7", nil)
	p.ManageStock = true
	require.NoError(t, repo.Upsert(ctx, &p))

	stored, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, stored.StockQuantity, "managed product gets a quantity")
	assert.Equal(t, 0, *stored.StockQuantity)

	p.Name = "Ceremonial Matcha"
	require.NoError(t, repo.Upsert(ctx, &p))
	stored, err = repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Ceremonial Matcha", stored.Name)

	qty := -3
	patched, err := repo.Patch(ctx, 7, catalog.ProductPatch{StockQuantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, -3, patched.Quantity())
	assert.Equal(t, catalog.StockStatusOutOfStock, patched.StockStatus)

	_, err = repo.Patch(ctx, 8, catalog.ProductPatch{StockQuantity: &qty})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	stale, next := 4, 6
	_, err = repo.Patch(ctx, 7, catalog.ProductPatch{StockQuantity: &next, ExpectStockQuantity: &stale})
	assert.ErrorIs(t, err, catalog.ErrStockChanged)
	stored, err = repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, -3, stored.Quantity())

	require.NoError(t, repo.Delete(ctx, 7))
	assert.ErrorIs(t, repo.Delete(ctx, 7), shared.ErrNotFound)
}

func TestGormCustomerRepository(t *testing.T) {
	repo := NewGormCustomerRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []catalog.Customer{
		{ID: 10, Email: "ana@example.com", FirstName: "Ana", LastName: "Silva", TotalSpent: decimal.NewFromInt(40)},
		{ID: 11, Email: "bo@example.com", FirstName: "Bo", LastName: "Jensen", DisplayName: "BJ"},
	}))

	c, err := repo.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", c.FullName())

	found, err := repo.Search(ctx, "JENSEN", 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(11), found[0].ID)

	require.NoError(t, repo.Upsert(ctx, &catalog.Customer{ID: 12, Email: "cy@example.com", Billing: catalog.Address{Phone: "555"}}))
	c, err = repo.Get(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "555", c.Billing.Phone)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = repo.Get(ctx, 404)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
