package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/trade"
)

// CheckoutItemRequest is one cart line as sent by the till. Prices are not
// accepted from the client; they come from the catalog cache.
type CheckoutItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// CheckoutRequest represents a request to commit a sale
type CheckoutRequest struct {
	Items         []CheckoutItemRequest `json:"items" binding:"required,dive"`
	CustomerID    *int64                `json:"customer_id"`
	CustomerEmail string                `json:"customer_email" binding:"omitempty,email,max=200"`
	CustomerName  string                `json:"customer_name" binding:"max=200"`
	Discount      decimal.Decimal       `json:"discount"`
	AmountPaid    decimal.Decimal       `json:"amount_paid"`
	PaymentMethod string                `json:"payment_method" binding:"omitempty,oneof=cash card digital split"`
	Notes         string                `json:"notes" binding:"max=1000"`
}

// LineItemResponse represents a frozen order line in API responses
type LineItemResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents a POS order in API responses
type OrderResponse struct {
	ID              uuid.UUID          `json:"id"`
	OrderNumber     string             `json:"order_number"`
	CustomerID      *int64             `json:"customer_id"`
	CustomerEmail   string             `json:"customer_email"`
	CustomerName    string             `json:"customer_name"`
	Items           []LineItemResponse `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Discount        decimal.Decimal    `json:"discount"`
	Tax             decimal.Decimal    `json:"tax"`
	Total           decimal.Decimal    `json:"total"`
	AmountPaid      decimal.Decimal    `json:"amount_paid"`
	Change          decimal.Decimal    `json:"change"`
	PaymentMethod   string             `json:"payment_method"`
	Status          string             `json:"status"`
	CashierID       string             `json:"cashier_id"`
	CashierName     string             `json:"cashier_name"`
	SyncState       string             `json:"sync_state"`
	UpstreamOrderID *int64             `json:"upstream_order_id"`
	SyncedAt        *time.Time         `json:"synced_at"`
	SyncAttempts    int                `json:"sync_attempts"`
	LastSyncError   string             `json:"last_sync_error,omitempty"`
	ReceiptPrinted  bool               `json:"receipt_printed"`
	Notes           string             `json:"notes"`
	CreatedAt       time.Time          `json:"created_at"`
}

// CheckoutResponse carries the committed order and, when the immediate push
// failed, why. The sale stands either way.
type CheckoutResponse struct {
	Order     OrderResponse `json:"order"`
	SyncError string        `json:"sync_error,omitempty"`
}

// ToOrderResponse converts a domain PosOrder to OrderResponse
func ToOrderResponse(o *trade.PosOrder) OrderResponse {
	items := make([]LineItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = LineItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			SKU:       item.SKU,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		CustomerEmail:   o.CustomerEmail,
		CustomerName:    o.CustomerName,
		Items:           items,
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		Tax:             o.Tax,
		Total:           o.Total,
		AmountPaid:      o.AmountPaid,
		Change:          o.Change,
		PaymentMethod:   string(o.PaymentMethod),
		Status:          string(o.Status),
		CashierID:       o.CashierID,
		CashierName:     o.CashierName,
		SyncState:       string(o.SyncState),
		UpstreamOrderID: o.UpstreamOrderID,
		SyncedAt:        o.SyncedAt,
		SyncAttempts:    o.SyncAttempts,
		LastSyncError:   o.LastSyncError,
		ReceiptPrinted:  o.ReceiptPrinted,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
	}
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []trade.PosOrder) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses
}
