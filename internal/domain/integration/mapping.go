package integration

import (
	"fmt"
	"strings"
	"time"

	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared/valueobject"
	"github.com/storepos/backend/internal/domain/trade"
)

// ToProduct converts the upstream schema into a cached product stamped with now
func (p PlatformProduct) ToProduct(now time.Time) (catalog.Product, error) {
	price, err := valueobject.ParseMoney(p.Price)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("product %d price: %w", p.ID, err)
	}
	regular, err := valueobject.ParseMoney(p.RegularPrice)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("product %d regular price: %w", p.ID, err)
	}
	sale, err := valueobject.ParseMoney(p.SalePrice)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("product %d sale price: %w", p.ID, err)
	}

	product := catalog.Product{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		SKU:              strings.TrimSpace(p.SKU),
		Price:            price,
		RegularPrice:     regular,
		SalePrice:        sale,
		OnSale:           p.OnSale,
		Status:           p.Status,
		StockStatus:      catalog.StockStatus(p.StockStatus),
		StockQuantity:    p.StockQuantity,
		ManageStock:      p.ManageStock,
		Categories:       p.Categories,
		Images:           p.Images,
		Weight:           p.Weight,
		Dimensions:       p.Dimensions,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		LastSyncAt:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	product.Normalize()
	return product, nil
}

// ToCustomer converts the upstream schema into a cached customer stamped with now
func (c PlatformCustomer) ToCustomer(now time.Time) (catalog.Customer, error) {
	spent, err := valueobject.ParseMoney(c.TotalSpent)
	if err != nil {
		return catalog.Customer{}, fmt.Errorf("customer %d total spent: %w", c.ID, err)
	}
	display := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if display == "" {
		display = c.Username
	}
	return catalog.Customer{
		ID:          c.ID,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		DisplayName: display,
		Username:    c.Username,
		Billing:     c.Billing,
		Shipping:    c.Shipping,
		AvatarURL:   c.AvatarURL,
		OrdersCount: c.OrdersCount,
		TotalSpent:  spent,
		LastSyncAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewCustomerCreateRequest builds a customer creation body. Missing address
// blocks default to the customer's names, and the phone goes on billing.
func NewCustomerCreateRequest(email, firstName, lastName, phone string, billing, shipping *catalog.Address) CustomerCreateRequest {
	req := CustomerCreateRequest{
		Email:     strings.TrimSpace(email),
		FirstName: firstName,
		LastName:  lastName,
	}
	if billing != nil {
		req.Billing = *billing
	} else {
		req.Billing = catalog.Address{FirstName: firstName, LastName: lastName, Phone: phone}
	}
	if shipping != nil {
		req.Shipping = *shipping
	} else {
		req.Shipping = catalog.Address{FirstName: firstName, LastName: lastName}
	}
	return req
}

// BuildOrderRequest maps a committed POS order into the upstream creation shape.
// The local order id travels as the _pos_order_id tag.
func BuildOrderRequest(order *trade.PosOrder) OrderCreateRequest {
	req := OrderCreateRequest{
		Status:             "processing",
		PaymentMethod:      "pos_" + string(order.PaymentMethod),
		PaymentMethodTitle: "POS " + order.PaymentMethod.Title(),
		SetPaid:            true,
		CustomerNote:       order.Notes,
		MetaData: []MetaData{
			NewStringMeta(MetaKeyPosOrderID, order.ID.String()),
			NewStringMeta(MetaKeyPosOrderNumber, order.OrderNumber),
			NewStringMeta(MetaKeyPosCashier, order.CashierName),
		},
	}
	if order.CustomerID != nil {
		req.CustomerID = *order.CustomerID
	}
	if order.CustomerEmail != "" {
		first, last := splitName(order.CustomerName)
		req.Billing = &OrderBilling{Email: order.CustomerEmail, FirstName: first, LastName: last}
	}

	req.LineItems = make([]OrderLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		total := valueobject.FormatMoney(item.Subtotal)
		req.LineItems = append(req.LineItems, OrderLineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  total,
			Total:     total,
		})
	}

	// the cart discount is applied after line totals, so it travels as a negative fee
	if order.Discount.IsPositive() {
		discount := order.Discount
		if discount.GreaterThan(order.Subtotal) {
			discount = order.Subtotal
		}
		req.FeeLines = append(req.FeeLines, OrderFeeLine{
			Name:      "POS discount",
			Total:     valueobject.FormatMoney(discount.Neg()),
			TaxStatus: "none",
		})
	}
	return req
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
