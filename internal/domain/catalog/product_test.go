package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestProduct_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		product    Product
		wantQty    *int
		wantStatus StockStatus
	}{
		{
			name:       "managed with nil quantity becomes zero and out of stock",
			product:    Product{ManageStock: true, StockStatus: StockStatusInStock},
			wantQty:    intPtr(0),
			wantStatus: StockStatusOutOfStock,
		},
		{
			name:       "managed positive quantity is in stock",
			product:    Product{ManageStock: true, StockQuantity: intPtr(3), StockStatus: StockStatusOutOfStock},
			wantQty:    intPtr(3),
			wantStatus: StockStatusInStock,
		},
		{
			name:       "negative quantity is out of stock",
			product:    Product{ManageStock: true, StockQuantity: intPtr(-2)},
			wantQty:    intPtr(-2),
			wantStatus: StockStatusOutOfStock,
		},
		{
			name:       "backorder override preserved",
			product:    Product{ManageStock: true, StockQuantity: intPtr(0), StockStatus: StockStatusOnBackorder},
			wantQty:    intPtr(0),
			wantStatus: StockStatusOnBackorder,
		},
		{
			name:       "unmanaged keeps nil quantity",
			product:    Product{ManageStock: false, StockStatus: StockStatusOutOfStock},
			wantQty:    nil,
			wantStatus: StockStatusOutOfStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.product
			p.Normalize()
			assert.Equal(t, tt.wantQty, p.StockQuantity)
			assert.Equal(t, tt.wantStatus, p.StockStatus)
		})
	}
}

func TestProductPatch_ApplyRederivesStatus(t *testing.T) {
	p := Product{ID: 1, ManageStock: true, StockQuantity: intPtr(5), StockStatus: StockStatusInStock}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	ProductPatch{StockQuantity: intPtr(0)}.Apply(&p, now)

	require.NotNil(t, p.StockQuantity)
	assert.Equal(t, 0, *p.StockQuantity)
	assert.Equal(t, StockStatusOutOfStock, p.StockStatus)
	assert.Equal(t, now, p.UpdatedAt)

	price := decimal.RequireFromString("12.50")
	ProductPatch{Price: &price}.Apply(&p, now)
	assert.True(t, p.Price.Equal(price))
	assert.Equal(t, 0, *p.StockQuantity)
}

func TestProduct_EffectivePrice(t *testing.T) {
	p := Product{
		Price:        decimal.RequireFromString("10"),
		RegularPrice: decimal.RequireFromString("12"),
		SalePrice:    decimal.RequireFromString("9"),
	}
	assert.Equal(t, "10", p.EffectivePrice().String())

	p.OnSale = true
	assert.Equal(t, "9", p.EffectivePrice().String())

	p.Price = decimal.Zero
	p.OnSale = false
	assert.Equal(t, "12", p.EffectivePrice().String())
}

func TestProduct_MatchesFoldsCase(t *testing.T) {
	p := Product{Name: "Café Latte", SKU: "BEV-001"}

	assert.True(t, p.Matches(FoldCase("CAFÉ"), FoldCase))
	assert.True(t, p.Matches(FoldCase("bev-0"), FoldCase))
	assert.False(t, p.Matches(FoldCase("espresso"), FoldCase))
	assert.True(t, p.Matches("", FoldCase))
}

func TestProduct_CloneDoesNotAlias(t *testing.T) {
	p := Product{StockQuantity: intPtr(1), Categories: []CategoryRef{{ID: 1}}}
	c := p.Clone()
	*c.StockQuantity = 9
	c.Categories[0].ID = 2

	assert.Equal(t, 1, *p.StockQuantity)
	assert.Equal(t, int64(1), p.Categories[0].ID)
}

func TestCustomer_Matches(t *testing.T) {
	c := Customer{Email: "Jane@Example.com", FirstName: "Jane", LastName: "Doe", DisplayName: "jdoe"}

	assert.True(t, c.Matches(FoldCase("jane@example"), FoldCase))
	assert.True(t, c.Matches(FoldCase("DOE"), FoldCase))
	assert.True(t, c.Matches(FoldCase("jdo"), FoldCase))
	assert.False(t, c.Matches(FoldCase("smith"), FoldCase))
	assert.Equal(t, "Jane Doe", c.FullName())
}
