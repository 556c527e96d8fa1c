package trade

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/domain/shared/valueobject"
)

// SyncState tells whether a local order has reached the commerce platform
type SyncState string

const (
	SyncStateUnsynced SyncState = "unsynced"
	SyncStateSynced   SyncState = "synced"
)

// PaymentMethod is how the customer paid at the till
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodDigital PaymentMethod = "digital"
	PaymentMethodSplit   PaymentMethod = "split"
)

// IsValid returns true if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodDigital, PaymentMethodSplit:
		return true
	}
	return false
}

// Title is the human label sent upstream as payment_method_title
func (m PaymentMethod) Title() string {
	switch m {
	case PaymentMethodCash:
		return "Cash"
	case PaymentMethodCard:
		return "Card"
	case PaymentMethodDigital:
		return "Digital wallet"
	case PaymentMethodSplit:
		return "Split payment"
	}
	return string(m)
}

// OrderStatus is the fulfilment status of a POS order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid returns true if the status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// LineItem is a frozen copy of a product at checkout time. Later catalog
// changes never alter it.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PosOrder is a sale committed locally at the till
type PosOrder struct {
	ID              uuid.UUID
	OrderNumber     string
	CustomerID      *int64
	CustomerEmail   string
	CustomerName    string
	Items           []LineItem
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	AmountPaid      decimal.Decimal
	Change          decimal.Decimal
	PaymentMethod   PaymentMethod
	Status          OrderStatus
	CashierID       string
	CashierName     string
	SyncState       SyncState
	UpstreamOrderID *int64
	SyncedAt        *time.Time
	SyncAttempts    int
	LastSyncError   string
	ReceiptPrinted  bool
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrderInput carries everything needed to commit a sale
type NewOrderInput struct {
	CustomerID    *int64
	CustomerEmail string
	CustomerName  string
	Items         []LineItem
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	PaymentMethod PaymentMethod
	Status        OrderStatus
	CashierID     string
	CashierName   string
	Notes         string
}

// NewPosOrder validates a sale and stamps it unsynced with a time-ordered id
func NewPosOrder(in NewOrderInput) (*PosOrder, error) {
	if len(in.Items) == 0 {
		return nil, shared.NewInvalidOrder("order must contain at least one item")
	}
	for i, item := range in.Items {
		if item.ProductID <= 0 {
			return nil, shared.NewInvalidOrder(fmt.Sprintf("item %d has no product", i+1))
		}
		if item.Quantity <= 0 {
			return nil, shared.NewInvalidOrder(fmt.Sprintf("item %d quantity must be positive", i+1))
		}
		if item.UnitPrice.IsNegative() {
			return nil, shared.NewInvalidOrder(fmt.Sprintf("item %d unit price must not be negative", i+1))
		}
	}
	if !in.Total.IsPositive() {
		return nil, shared.NewInvalidOrder("order total must be positive")
	}
	if err := checkTotals(in); err != nil {
		return nil, err
	}

	method := in.PaymentMethod
	if method == "" {
		method = PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, shared.NewInvalidOrder(fmt.Sprintf("unknown payment method %q", method))
	}
	status := in.Status
	if status == "" {
		status = OrderStatusCompleted
	}
	if !status.IsValid() {
		return nil, shared.NewInvalidOrder(fmt.Sprintf("unknown order status %q", status))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate order id: %w", err)
	}
	now := time.Now()

	items := make([]LineItem, len(in.Items))
	copy(items, in.Items)

	amountPaid := in.AmountPaid
	if amountPaid.IsZero() {
		amountPaid = in.Total
	}

	return &PosOrder{
		ID:            id,
		OrderNumber:   NewOrderNumber(time.UnixMilli(nextOrderMillis(now))),
		CustomerID:    in.CustomerID,
		CustomerEmail: in.CustomerEmail,
		CustomerName:  in.CustomerName,
		Items:         items,
		Subtotal:      in.Subtotal,
		Discount:      in.Discount,
		Tax:           in.Tax,
		Total:         in.Total,
		AmountPaid:    amountPaid,
		Change:        Change(in.Total, amountPaid),
		PaymentMethod: method,
		Status:        status,
		CashierID:     in.CashierID,
		CashierName:   in.CashierName,
		SyncState:     SyncStateUnsynced,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// checkTotals verifies the stored amounts relate as the cart calculator produces them
func checkTotals(in NewOrderInput) error {
	sum := decimal.Zero
	for i, item := range in.Items {
		want := LineSubtotal(item.UnitPrice, item.Quantity)
		if !item.Subtotal.Equal(want) {
			return shared.NewInvalidOrder(fmt.Sprintf("item %d subtotal %s does not match %s x %d",
				i+1, item.Subtotal.StringFixed(2), item.UnitPrice.StringFixed(2), item.Quantity))
		}
		sum = sum.Add(item.Subtotal)
	}
	if !valueobject.RoundMoney(sum).Equal(in.Subtotal) {
		return shared.NewInvalidOrder("order subtotal does not match its items")
	}
	taxBase := in.Subtotal.Sub(in.Discount)
	if taxBase.IsNegative() {
		taxBase = decimal.Zero
	}
	if in.Tax.IsNegative() || !taxBase.Add(in.Tax).Equal(in.Total) {
		return shared.NewInvalidOrder("order total must equal taxable amount plus tax")
	}
	return nil
}

// NewOrderNumber returns the receipt number for an order created at t
func NewOrderNumber(t time.Time) string {
	return "POS-" + strconv.FormatInt(t.UnixMilli(), 10)
}

var lastOrderMillis atomic.Int64

// nextOrderMillis keeps order numbers unique within the process when two
// sales land in the same millisecond.
func nextOrderMillis(now time.Time) int64 {
	for {
		last := lastOrderMillis.Load()
		ms := now.UnixMilli()
		if ms <= last {
			ms = last + 1
		}
		if lastOrderMillis.CompareAndSwap(last, ms) {
			return ms
		}
	}
}

// IsSynced reports whether the order reached the commerce platform
func (o *PosOrder) IsSynced() bool {
	return o.SyncState == SyncStateSynced
}

// MarkSynced transitions unsynced -> synced. It returns false and leaves the
// order untouched when it was already synced.
func (o *PosOrder) MarkSynced(upstreamOrderID int64, at time.Time) bool {
	if o.IsSynced() {
		return false
	}
	id := upstreamOrderID
	o.SyncState = SyncStateSynced
	o.UpstreamOrderID = &id
	o.SyncedAt = &at
	o.LastSyncError = ""
	o.UpdatedAt = at
	return true
}

// RecordSyncFailure notes a failed push. The sync state is not changed.
func (o *PosOrder) RecordSyncFailure(message string, at time.Time) {
	if o.IsSynced() {
		return
	}
	o.SyncAttempts++
	o.LastSyncError = message
	o.UpdatedAt = at
}

// MarkReceiptPrinted sets the receipt flag, the one field editable after checkout
func (o *PosOrder) MarkReceiptPrinted(at time.Time) {
	o.ReceiptPrinted = true
	o.UpdatedAt = at
}

// CartLines returns the pricing view of the order's items
func (o *PosOrder) CartLines() []CartLine {
	lines := make([]CartLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = CartLine{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return lines
}
