package integration

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformProduct_ToProduct(t *testing.T) {
	raw := `{
		"id": 42, "name": "Oat Milk 1L", "slug": "oat-milk", "sku": " OAT-1 ",
		"price": "3.49", "regular_price": "3.99", "sale_price": "3.49", "on_sale": true,
		"status": "publish", "stock_status": "instock", "stock_quantity": null, "manage_stock": true,
		"categories": [{"id": 3, "name": "Dairy", "slug": "dairy"}],
		"images": [{"id": 9, "src": "https://shop.test/oat.jpg", "name": "oat", "alt": ""}],
		"dimensions": {"length": "10", "width": "7", "height": "20"}
	}`
	var pp PlatformProduct
	require.NoError(t, json.Unmarshal([]byte(raw), &pp))

	now := time.Now()
	p, err := pp.ToProduct(now)
	require.NoError(t, err)

	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, "OAT-1", p.SKU)
	assert.Equal(t, "3.49", p.EffectivePrice().StringFixed(2))
	require.NotNil(t, p.StockQuantity, "managed stock gets a quantity")
	assert.Equal(t, 0, *p.StockQuantity)
	assert.Equal(t, catalog.StockStatusOutOfStock, p.StockStatus)
	assert.Equal(t, "Dairy", p.Categories[0].Name)
	assert.Equal(t, now, p.LastSyncAt)
}

func TestPlatformProduct_ToProductRejectsBadPrice(t *testing.T) {
	_, err := PlatformProduct{ID: 1, Price: "free"}.ToProduct(time.Now())
	assert.Error(t, err)
}

func TestPlatformCustomer_ToCustomer(t *testing.T) {
	c, err := PlatformCustomer{ID: 5, Email: "a@b.test", FirstName: "Ada", LastName: "Lovelace", TotalSpent: "120.50", OrdersCount: 3}.ToCustomer(time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", c.DisplayName)
	assert.Equal(t, "120.50", c.TotalSpent.StringFixed(2))
}

func TestNewCustomerCreateRequest_DefaultsAddresses(t *testing.T) {
	req := NewCustomerCreateRequest(" ada@b.test ", "Ada", "Lovelace", "555-1234", nil, nil)

	assert.Equal(t, "ada@b.test", req.Email)
	assert.Equal(t, "555-1234", req.Billing.Phone)
	assert.Equal(t, "Ada", req.Shipping.FirstName)
}

func TestBuildOrderRequest(t *testing.T) {
	customerID := int64(77)
	order := &trade.PosOrder{
		ID:            uuid.Must(uuid.NewV7()),
		OrderNumber:   "POS-1700000000000",
		CustomerID:    &customerID,
		CustomerEmail: "jane@example.com",
		CustomerName:  "Jane van Doe",
		Items: []trade.LineItem{
			{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("10"), Subtotal: decimal.RequireFromString("30")},
		},
		Subtotal:      decimal.RequireFromString("30"),
		Discount:      decimal.RequireFromString("5"),
		PaymentMethod: trade.PaymentMethodCard,
		CashierName:   "Ana",
	}

	req := BuildOrderRequest(order)

	assert.Equal(t, "processing", req.Status)
	assert.Equal(t, int64(77), req.CustomerID)
	require.NotNil(t, req.Billing)
	assert.Equal(t, "Jane", req.Billing.FirstName)
	assert.Equal(t, "van Doe", req.Billing.LastName)
	require.Len(t, req.LineItems, 1)
	assert.Equal(t, "30.00", req.LineItems[0].Total)
	require.Len(t, req.FeeLines, 1)
	assert.Equal(t, "-5.00", req.FeeLines[0].Total)
	assert.Equal(t, order.ID.String(), req.PosOrderID())
	assert.Equal(t, "pos_card", req.PaymentMethod)

	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"key":"_pos_order_id"`)
	assert.Contains(t, string(body), `"key":"_pos_cashier","value":"Ana"`)
}

func TestBuildOrderRequest_GuestWithoutBilling(t *testing.T) {
	order := &trade.PosOrder{
		ID:    uuid.Must(uuid.NewV7()),
		Items: []trade.LineItem{{ProductID: 1, Quantity: 1, Subtotal: decimal.RequireFromString("2")}},
	}
	req := BuildOrderRequest(order)

	assert.Equal(t, int64(0), req.CustomerID)
	assert.Nil(t, req.Billing)
	assert.Empty(t, req.FeeLines)
}

func TestPlatformOrder_PosOrderIDIgnoresNonStringValues(t *testing.T) {
	o := PlatformOrder{MetaData: []MetaData{
		{Key: MetaKeyPosOrderID, Value: json.RawMessage(`123`)},
	}}
	assert.Equal(t, "", o.PosOrderID())

	o.MetaData = append(o.MetaData[:0], NewStringMeta(MetaKeyPosOrderID, "abc"))
	assert.Equal(t, "abc", o.PosOrderID())
}
