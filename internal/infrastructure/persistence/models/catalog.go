package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for a cached upstream product.
// SearchText holds the case-folded name and SKU so LIKE queries behave the
// same on every dialect.
type ProductModel struct {
	ID               int64                 `gorm:"primaryKey;autoIncrement:false"`
	Name             string                `gorm:"type:varchar(255);not null"`
	Slug             string                `gorm:"type:varchar(255)"`
	SKU              string                `gorm:"column:sku;type:varchar(100);index"`
	Price            decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	RegularPrice     decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	SalePrice        decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	OnSale           bool                  `gorm:"not null;default:false"`
	Status           string                `gorm:"type:varchar(20)"`
	StockStatus      string                `gorm:"type:varchar(20);not null"`
	StockQuantity    *int                  `gorm:"column:stock_quantity"`
	ManageStock      bool                  `gorm:"not null;default:false"`
	Categories       []catalog.CategoryRef `gorm:"type:text;serializer:json"`
	Images           []catalog.ImageRef    `gorm:"type:text;serializer:json"`
	Weight           string                `gorm:"type:varchar(50)"`
	Dimensions       catalog.Dimensions    `gorm:"type:text;serializer:json"`
	ShortDescription string                `gorm:"type:text"`
	Description      string                `gorm:"type:text"`
	SearchText       string                `gorm:"type:text;index"`
	LastSyncAt       time.Time
	Timestamps
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		ID:               m.ID,
		Name:             m.Name,
		Slug:             m.Slug,
		SKU:              m.SKU,
		Price:            m.Price,
		RegularPrice:     m.RegularPrice,
		SalePrice:        m.SalePrice,
		OnSale:           m.OnSale,
		Status:           m.Status,
		StockStatus:      catalog.StockStatus(m.StockStatus),
		ManageStock:      m.ManageStock,
		Categories:       m.Categories,
		Images:           m.Images,
		Weight:           m.Weight,
		Dimensions:       m.Dimensions,
		ShortDescription: m.ShortDescription,
		Description:      m.Description,
		LastSyncAt:       m.LastSyncAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.StockQuantity != nil {
		q := *m.StockQuantity
		p.StockQuantity = &q
	}
	return p
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.ID = p.ID
	m.Name = p.Name
	m.Slug = p.Slug
	m.SKU = p.SKU
	m.Price = p.Price
	m.RegularPrice = p.RegularPrice
	m.SalePrice = p.SalePrice
	m.OnSale = p.OnSale
	m.Status = p.Status
	m.StockStatus = string(p.StockStatus)
	m.StockQuantity = p.StockQuantity
	m.ManageStock = p.ManageStock
	m.Categories = p.Categories
	m.Images = p.Images
	m.Weight = p.Weight
	m.Dimensions = p.Dimensions
	m.ShortDescription = p.ShortDescription
	m.Description = p.Description
	m.SearchText = catalog.FoldCase(p.Name) + "\n" + catalog.FoldCase(p.SKU)
	m.LastSyncAt = p.LastSyncAt
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// CustomerModel is the persistence model for a cached upstream customer
type CustomerModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false"`
	Email       string          `gorm:"type:varchar(255);index"`
	FirstName   string          `gorm:"type:varchar(100)"`
	LastName    string          `gorm:"type:varchar(100)"`
	DisplayName string          `gorm:"type:varchar(200)"`
	Username    string          `gorm:"type:varchar(100)"`
	Billing     catalog.Address `gorm:"type:text;serializer:json"`
	Shipping    catalog.Address `gorm:"type:text;serializer:json"`
	AvatarURL   string          `gorm:"type:varchar(500)"`
	OrdersCount int             `gorm:"not null;default:0"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SearchText  string          `gorm:"type:text"`
	LastSyncAt  time.Time
	Timestamps
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *catalog.Customer {
	return &catalog.Customer{
		ID:          m.ID,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		DisplayName: m.DisplayName,
		Username:    m.Username,
		Billing:     m.Billing,
		Shipping:    m.Shipping,
		AvatarURL:   m.AvatarURL,
		OrdersCount: m.OrdersCount,
		TotalSpent:  m.TotalSpent,
		LastSyncAt:  m.LastSyncAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *catalog.Customer) {
	m.ID = c.ID
	m.Email = c.Email
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.DisplayName = c.DisplayName
	m.Username = c.Username
	m.Billing = c.Billing
	m.Shipping = c.Shipping
	m.AvatarURL = c.AvatarURL
	m.OrdersCount = c.OrdersCount
	m.TotalSpent = c.TotalSpent
	m.SearchText = catalog.FoldCase(c.Email) + "\n" + catalog.FoldCase(c.FirstName) + "\n" +
		catalog.FoldCase(c.LastName) + "\n" + catalog.FoldCase(c.DisplayName)
	m.LastSyncAt = c.LastSyncAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}
