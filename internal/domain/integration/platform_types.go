package integration

import (
	"encoding/json"

	"github.com/storepos/backend/internal/domain/catalog"
)

// PlatformProduct is the upstream product schema
type PlatformProduct struct {
	ID               int64                 `json:"id" validate:"required,gt=0"`
	Name             string                `json:"name"`
	Slug             string                `json:"slug"`
	SKU              string                `json:"sku"`
	Price            string                `json:"price" validate:"omitempty,numeric"`
	RegularPrice     string                `json:"regular_price" validate:"omitempty,numeric"`
	SalePrice        string                `json:"sale_price" validate:"omitempty,numeric"`
	OnSale           bool                  `json:"on_sale"`
	Status           string                `json:"status"`
	StockStatus      string                `json:"stock_status" validate:"omitempty,oneof=instock outofstock onbackorder"`
	StockQuantity    *int                  `json:"stock_quantity"`
	ManageStock      bool                  `json:"manage_stock"`
	Categories       []catalog.CategoryRef `json:"categories"`
	Images           []catalog.ImageRef    `json:"images"`
	Weight           string                `json:"weight"`
	Dimensions       catalog.Dimensions    `json:"dimensions"`
	ShortDescription string                `json:"short_description"`
	Description      string                `json:"description"`
}

// PlatformCustomer is the upstream customer schema
type PlatformCustomer struct {
	ID          int64           `json:"id" validate:"required,gt=0"`
	Email       string          `json:"email" validate:"required"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Username    string          `json:"username"`
	Billing     catalog.Address `json:"billing"`
	Shipping    catalog.Address `json:"shipping"`
	AvatarURL   string          `json:"avatar_url"`
	OrdersCount int             `json:"orders_count"`
	TotalSpent  string          `json:"total_spent" validate:"omitempty,numeric"`
}

// CustomerCreateRequest is the body of a customer creation call
type CustomerCreateRequest struct {
	Email     string          `json:"email" validate:"required,email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Billing   catalog.Address `json:"billing"`
	Shipping  catalog.Address `json:"shipping"`
}

// MetaData is a key/value pair attached to an upstream object.
// Values may be any JSON type upstream, so they stay raw until read.
type MetaData struct {
	ID    int64           `json:"id,omitempty"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// StringValue returns the value when it is a JSON string, else ""
func (m MetaData) StringValue() string {
	var s string
	if err := json.Unmarshal(m.Value, &s); err != nil {
		return ""
	}
	return s
}

// NewStringMeta builds a string-valued metadata entry
func NewStringMeta(key, value string) MetaData {
	raw, _ := json.Marshal(value)
	return MetaData{Key: key, Value: raw}
}

// OrderBilling is the billing block of an order creation call
type OrderBilling struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// OrderLineItem is one line of an order creation call
type OrderLineItem struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Subtotal  string `json:"subtotal" validate:"required,numeric"`
	Total     string `json:"total" validate:"required,numeric"`
}

// OrderFeeLine carries POS-level adjustments such as a cart discount
type OrderFeeLine struct {
	Name      string `json:"name"`
	Total     string `json:"total" validate:"required,numeric"`
	TaxStatus string `json:"tax_status,omitempty"`
}

// OrderCreateRequest is the body of an order creation call
type OrderCreateRequest struct {
	Status             string          `json:"status" validate:"required"`
	CustomerID         int64           `json:"customer_id"`
	Billing            *OrderBilling   `json:"billing,omitempty"`
	LineItems          []OrderLineItem `json:"line_items" validate:"required,min=1,dive"`
	FeeLines           []OrderFeeLine  `json:"fee_lines,omitempty" validate:"dive"`
	MetaData           []MetaData      `json:"meta_data" validate:"required,min=1"`
	PaymentMethod      string          `json:"payment_method,omitempty"`
	PaymentMethodTitle string          `json:"payment_method_title,omitempty"`
	SetPaid            bool            `json:"set_paid"`
	CustomerNote       string          `json:"customer_note,omitempty"`
}

// PosOrderID returns the local order id this request is tagged with
func (r OrderCreateRequest) PosOrderID() string {
	return metaString(r.MetaData, MetaKeyPosOrderID)
}

// PlatformOrder is the upstream order schema, limited to what the POS reads
type PlatformOrder struct {
	ID          int64      `json:"id" validate:"required,gt=0"`
	Number      string     `json:"number"`
	Status      string     `json:"status"`
	Total       string     `json:"total" validate:"omitempty,numeric"`
	CustomerID  int64      `json:"customer_id"`
	DateCreated string     `json:"date_created"`
	MetaData    []MetaData `json:"meta_data"`
}

// PosOrderID returns the value of the local order id tag, if any
func (o PlatformOrder) PosOrderID() string {
	return metaString(o.MetaData, MetaKeyPosOrderID)
}

// SystemStatus is the subset of the upstream environment report the POS shows
type SystemStatus struct {
	Environment struct {
		HomeURL   string `json:"home_url"`
		Version   string `json:"version"`
		WPVersion string `json:"wp_version"`
	} `json:"environment"`
}

// ProductStockUpdate is the body of a stock update call
type ProductStockUpdate struct {
	StockQuantity int  `json:"stock_quantity"`
	ManageStock   bool `json:"manage_stock"`
}

func metaString(meta []MetaData, key string) string {
	for _, m := range meta {
		if m.Key == key {
			return m.StringValue()
		}
	}
	return ""
}
