package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/catalog"
)

// UpdatePriceRequest is a price edit from the till. Stock is never editable here.
type UpdatePriceRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Price        *decimal.Decimal `json:"price"`
	RegularPrice *decimal.Decimal `json:"regular_price"`
	SalePrice    *decimal.Decimal `json:"sale_price"`
	OnSale       *bool            `json:"on_sale"`
}

// CreateCustomerRequest represents a request to register a customer upstream
type CreateCustomerRequest struct {
	Email     string           `json:"email" binding:"required,email,max=200"`
	FirstName string           `json:"first_name" binding:"max=100"`
	LastName  string           `json:"last_name" binding:"max=100"`
	Phone     string           `json:"phone" binding:"max=50"`
	Billing   *catalog.Address `json:"billing"`
	Shipping  *catalog.Address `json:"shipping"`
}

// ProductResponse represents a cached product in API responses
type ProductResponse struct {
	ID               int64                 `json:"id"`
	Name             string                `json:"name"`
	Slug             string                `json:"slug"`
	SKU              string                `json:"sku"`
	Price            decimal.Decimal       `json:"price"`
	RegularPrice     decimal.Decimal       `json:"regular_price"`
	SalePrice        decimal.Decimal       `json:"sale_price"`
	EffectivePrice   decimal.Decimal       `json:"effective_price"`
	OnSale           bool                  `json:"on_sale"`
	Status           string                `json:"status"`
	StockStatus      string                `json:"stock_status"`
	StockQuantity    *int                  `json:"stock_quantity"`
	ManageStock      bool                  `json:"manage_stock"`
	Categories       []catalog.CategoryRef `json:"categories"`
	Images           []catalog.ImageRef    `json:"images"`
	Weight           string                `json:"weight"`
	Dimensions       catalog.Dimensions    `json:"dimensions"`
	ShortDescription string                `json:"short_description"`
	Description      string                `json:"description"`
	LastSyncAt       time.Time             `json:"last_sync_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// CustomerResponse represents a cached customer in API responses
type CustomerResponse struct {
	ID          int64           `json:"id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	DisplayName string          `json:"display_name"`
	Username    string          `json:"username"`
	Billing     catalog.Address `json:"billing"`
	Shipping    catalog.Address `json:"shipping"`
	AvatarURL   string          `json:"avatar_url"`
	OrdersCount int             `json:"orders_count"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	LastSyncAt  time.Time       `json:"last_sync_at"`
}

// SyncResponse reports how many records a full refresh stored
type SyncResponse struct {
	Count    int       `json:"count"`
	SyncedAt time.Time `json:"synced_at"`
}

// ToProductResponse converts a cached Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		SKU:              p.SKU,
		Price:            p.Price,
		RegularPrice:     p.RegularPrice,
		SalePrice:        p.SalePrice,
		EffectivePrice:   p.EffectivePrice(),
		OnSale:           p.OnSale,
		Status:           p.Status,
		StockStatus:      string(p.StockStatus),
		StockQuantity:    p.StockQuantity,
		ManageStock:      p.ManageStock,
		Categories:       p.Categories,
		Images:           p.Images,
		Weight:           p.Weight,
		Dimensions:       p.Dimensions,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		LastSyncAt:       p.LastSyncAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of cached Products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}

// ToCustomerResponse converts a cached Customer to CustomerResponse
func ToCustomerResponse(c *catalog.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		DisplayName: c.DisplayName,
		Username:    c.Username,
		Billing:     c.Billing,
		Shipping:    c.Shipping,
		AvatarURL:   c.AvatarURL,
		OrdersCount: c.OrdersCount,
		TotalSpent:  c.TotalSpent,
		LastSyncAt:  c.LastSyncAt,
	}
}

// ToCustomerResponses converts a slice of cached Customers
func ToCustomerResponses(customers []catalog.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses
}
