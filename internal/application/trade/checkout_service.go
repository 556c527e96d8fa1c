package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// ProductLookup resolves a product for pricing
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

// CustomerLookup resolves a customer attached to a sale
type CustomerLookup interface {
	GetCustomer(ctx context.Context, id int64) (*catalog.Customer, error)
}

// OrderPusher sends one committed order upstream and returns its upstream id
type OrderPusher interface {
	PushOne(ctx context.Context, order *trade.PosOrder) (int64, error)
}

// Cashier identifies who rang up a sale
type Cashier struct {
	ID   string
	Name string
}

// CheckoutResult is a committed sale plus the outcome of its immediate push
type CheckoutResult struct {
	Order     *trade.PosOrder
	SyncError error
}

// CheckoutOption configures a CheckoutService
type CheckoutOption func(*CheckoutService)

// WithPusher pushes each committed order upstream right after checkout
func WithPusher(pusher OrderPusher) CheckoutOption {
	return func(s *CheckoutService) {
		s.pusher = pusher
	}
}

// WithCheckoutLogger sets the checkout logger
func WithCheckoutLogger(logger *zap.Logger) CheckoutOption {
	return func(s *CheckoutService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// CheckoutService turns a cart into a committed order. The order is durable
// before any upstream call is made, and a failed push never fails the sale.
type CheckoutService struct {
	ledger     *OrderLedger
	products   ProductLookup
	customers  CustomerLookup
	calculator trade.Calculator
	pusher     OrderPusher
	logger     *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	ledger *OrderLedger,
	products ProductLookup,
	customers CustomerLookup,
	calculator trade.Calculator,
	opts ...CheckoutOption,
) *CheckoutService {
	s := &CheckoutService{
		ledger:     ledger,
		products:   products,
		customers:  customers,
		calculator: calculator,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote prices a cart without committing it
func (s *CheckoutService) Quote(ctx context.Context, req CheckoutRequest) ([]trade.LineItem, trade.Totals, error) {
	if len(req.Items) == 0 {
		return nil, trade.Totals{}, shared.NewInvalidOrder("order must contain at least one item")
	}
	items := make([]trade.LineItem, 0, len(req.Items))
	lines := make([]trade.CartLine, 0, len(req.Items))
	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, trade.Totals{}, shared.NewInvalidOrder(fmt.Sprintf("item %d quantity must be positive", i+1))
		}
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInvalidInput) {
				return nil, trade.Totals{}, shared.NewInvalidOrder(fmt.Sprintf("item %d: product %d is not available", i+1, line.ProductID))
			}
			return nil, trade.Totals{}, err
		}
		price := product.EffectivePrice()
		items = append(items, trade.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			SKU:       product.SKU,
			UnitPrice: price,
			Quantity:  line.Quantity,
			Subtotal:  trade.LineSubtotal(price, line.Quantity),
		})
		lines = append(lines, trade.CartLine{UnitPrice: price, Quantity: line.Quantity})
	}
	return items, s.calculator.Calculate(lines, req.Discount), nil
}

// Checkout prices the cart from the catalog cache, commits the order and then
// tries to push it. The returned order carries whatever sync state it reached.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest, cashier Cashier) (*CheckoutResult, error) {
	items, totals, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	method := trade.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = trade.PaymentMethodCash
	}
	if method == trade.PaymentMethodCash && !req.AmountPaid.IsZero() && req.AmountPaid.LessThan(totals.Total) {
		return nil, shared.NewInvalidOrder(fmt.Sprintf("amount paid %s is less than total %s",
			req.AmountPaid.StringFixed(2), totals.Total.StringFixed(2)))
	}

	input := trade.NewOrderInput{
		CustomerID:    req.CustomerID,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		Items:         items,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Tax:           totals.Tax,
		Total:         totals.Total,
		AmountPaid:    amountPaid(req.AmountPaid, totals.Total),
		PaymentMethod: method,
		Status:        trade.OrderStatusCompleted,
		CashierID:     cashier.ID,
		CashierName:   cashier.Name,
		Notes:         req.Notes,
	}
	if err := s.attachCustomer(ctx, &input); err != nil {
		return nil, err
	}

	order, err := s.ledger.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	result := &CheckoutResult{Order: order}

	if s.pusher == nil {
		return result, nil
	}
	if _, err := s.pusher.PushOne(ctx, order); err != nil {
		s.logger.Warn("Order left unsynced after checkout",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		result.SyncError = err
	}
	if current, err := s.ledger.Get(ctx, order.ID); err == nil {
		result.Order = current
	}
	return result, nil
}

func (s *CheckoutService) attachCustomer(ctx context.Context, input *trade.NewOrderInput) error {
	if input.CustomerID == nil {
		return nil
	}
	if s.customers == nil {
		return nil
	}
	customer, err := s.customers.GetCustomer(ctx, *input.CustomerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInvalidInput) {
			return shared.NewInvalidOrder(fmt.Sprintf("customer %d is not known", *input.CustomerID))
		}
		return err
	}
	if input.CustomerEmail == "" {
		input.CustomerEmail = customer.Email
	}
	if input.CustomerName == "" {
		input.CustomerName = customer.FullName()
	}
	return nil
}

// amountPaid treats an omitted amount as exact payment
func amountPaid(paid, total decimal.Decimal) decimal.Decimal {
	if paid.IsZero() {
		return total
	}
	return paid
}
