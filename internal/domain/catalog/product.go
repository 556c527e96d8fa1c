package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus is the commerce platform's availability flag for a product
type StockStatus string

const (
	StockStatusInStock     StockStatus = "instock"
	StockStatusOutOfStock  StockStatus = "outofstock"
	StockStatusOnBackorder StockStatus = "onbackorder"
)

// IsValid checks if the stock status is a known value
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusInStock, StockStatusOutOfStock, StockStatusOnBackorder:
		return true
	}
	return false
}

// CategoryRef is a product category as referenced by the commerce platform
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ImageRef is a product image as referenced by the commerce platform
type ImageRef struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

// Dimensions holds the shipping dimensions of a product, as strings like upstream
type Dimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// Product is a locally cached copy of an upstream product.
// Identity is the upstream product id.
type Product struct {
	ID               int64
	Name             string
	Slug             string
	SKU              string
	Price            decimal.Decimal
	RegularPrice     decimal.Decimal
	SalePrice        decimal.Decimal
	OnSale           bool
	Status           string
	StockStatus      StockStatus
	StockQuantity    *int
	ManageStock      bool
	Categories       []CategoryRef
	Images           []ImageRef
	Weight           string
	Dimensions       Dimensions
	ShortDescription string
	Description      string
	LastSyncAt       time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Normalize enforces the stock invariant: a stock-managed product always has
// a quantity, and its status follows that quantity unless it was manually put
// on backorder.
func (p *Product) Normalize() {
	if !p.ManageStock {
		if p.StockStatus == "" {
			p.StockStatus = StockStatusInStock
		}
		return
	}
	if p.StockQuantity == nil {
		zero := 0
		p.StockQuantity = &zero
	}
	p.StockStatus = DeriveStockStatus(*p.StockQuantity, p.StockStatus)
}

// DeriveStockStatus computes the stock status for a tracked quantity
func DeriveStockStatus(quantity int, current StockStatus) StockStatus {
	if current == StockStatusOnBackorder {
		return StockStatusOnBackorder
	}
	if quantity <= 0 {
		return StockStatusOutOfStock
	}
	return StockStatusInStock
}

// Quantity returns the tracked quantity, treating an untracked quantity as zero
func (p *Product) Quantity() int {
	if p.StockQuantity == nil {
		return 0
	}
	return *p.StockQuantity
}

// EffectivePrice returns the price a cashier should charge
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.OnSale && p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	if !p.Price.IsZero() {
		return p.Price
	}
	return p.RegularPrice
}

// Matches reports whether the folded search text occurs in the product's name or SKU.
// fold must already be applied to needle.
func (p *Product) Matches(needle string, fold func(string) string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(fold(p.Name), needle) || strings.Contains(fold(p.SKU), needle)
}

// Clone returns a deep copy so cached snapshots are never aliased by callers
func (p Product) Clone() Product {
	c := p
	if p.StockQuantity != nil {
		q := *p.StockQuantity
		c.StockQuantity = &q
	}
	if p.Categories != nil {
		c.Categories = append([]CategoryRef(nil), p.Categories...)
	}
	if p.Images != nil {
		c.Images = append([]ImageRef(nil), p.Images...)
	}
	return c
}

// ErrStockChanged is returned by a patch whose expected stock quantity no
// longer matches the stored one
var ErrStockChanged = errors.New("stock quantity changed since it was read")

// ProductPatch holds a partial update. Nil fields are left untouched.
// ExpectStockQuantity, when set, makes the patch conditional on the stored
// quantity.
type ProductPatch struct {
	Name          *string
	Price         *decimal.Decimal
	RegularPrice  *decimal.Decimal
	SalePrice     *decimal.Decimal
	OnSale        *bool
	StockStatus   *StockStatus
	StockQuantity *int
	LastSyncAt    *time.Time

	ExpectStockQuantity *int
}

// Check reports ErrStockChanged when p no longer holds the expected quantity
func (pp ProductPatch) Check(p *Product) error {
	if pp.ExpectStockQuantity != nil && p.Quantity() != *pp.ExpectStockQuantity {
		return ErrStockChanged
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing
func (pp ProductPatch) IsEmpty() bool {
	return pp.Name == nil && pp.Price == nil && pp.RegularPrice == nil && pp.SalePrice == nil &&
		pp.OnSale == nil && pp.StockStatus == nil && pp.StockQuantity == nil && pp.LastSyncAt == nil
}

// Apply applies the patch to p and re-normalizes the stock invariant.
func (pp ProductPatch) Apply(p *Product, now time.Time) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.RegularPrice != nil {
		p.RegularPrice = *pp.RegularPrice
	}
	if pp.SalePrice != nil {
		p.SalePrice = *pp.SalePrice
	}
	if pp.OnSale != nil {
		p.OnSale = *pp.OnSale
	}
	if pp.StockStatus != nil {
		p.StockStatus = *pp.StockStatus
	}
	if pp.StockQuantity != nil {
		q := *pp.StockQuantity
		p.StockQuantity = &q
	}
	if pp.LastSyncAt != nil {
		p.LastSyncAt = *pp.LastSyncAt
	}
	p.UpdatedAt = now
	p.Normalize()
}
