package trade

import (
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/shared/valueobject"
)

// DefaultTaxRate is applied when no rate is configured
var DefaultTaxRate = decimal.NewFromFloat(0.10)

// CartLine is the pricing input for one cart row
type CartLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the priced result of a cart. Total == TaxBase + Tax and
// TaxBase == max(Subtotal - Discount, 0) always hold.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	TaxBase  decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculator prices carts. It holds no state besides the tax rate, so the
// same inputs always give the same totals.
type Calculator struct {
	TaxRate decimal.Decimal
}

// NewCalculator creates a calculator; a negative rate falls back to the default
func NewCalculator(taxRate decimal.Decimal) Calculator {
	if taxRate.IsNegative() {
		taxRate = DefaultTaxRate
	}
	return Calculator{TaxRate: taxRate}
}

// LineSubtotal returns the rounded subtotal of one line
func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return valueobject.RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Calculate prices lines with a discount amount. Stored values are rounded
// half up to cents after each step that produces one. A negative discount is
// ignored.
func (c Calculator) Calculate(lines []CartLine, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineSubtotal(l.UnitPrice, l.Quantity))
	}
	subtotal = valueobject.RoundMoney(subtotal)

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	discount = valueobject.RoundMoney(discount)

	taxBase := valueobject.RoundMoney(subtotal.Sub(discount))
	if taxBase.IsNegative() {
		taxBase = decimal.Zero
	}
	tax := valueobject.RoundMoney(taxBase.Mul(c.TaxRate))

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		TaxBase:  taxBase,
		Tax:      tax,
		Total:    taxBase.Add(tax),
	}
}

// Change returns amountPaid - total, or zero when underpaid
func Change(total, amountPaid decimal.Decimal) decimal.Decimal {
	change := valueobject.RoundMoney(amountPaid.Sub(total))
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}
