package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/trade"
)

// PosOrderModel is the persistence model for a locally committed sale.
// Line items are frozen at checkout and stored as a JSON document.
type PosOrderModel struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey"`
	OrderNumber     string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID      *int64           `gorm:"index"`
	CustomerEmail   string           `gorm:"type:varchar(255)"`
	CustomerName    string           `gorm:"type:varchar(200)"`
	Items           []trade.LineItem `gorm:"type:text;serializer:json;not null"`
	Subtotal        decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Discount        decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	Tax             decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	Total           decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	AmountPaid      decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	ChangeDue       decimal.Decimal  `gorm:"column:change_due;type:decimal(18,2);not null;default:0"`
	PaymentMethod   string           `gorm:"type:varchar(20);not null"`
	Status          string           `gorm:"type:varchar(20);not null;index"`
	CashierID       string           `gorm:"type:varchar(100)"`
	CashierName     string           `gorm:"type:varchar(200)"`
	SyncState       string           `gorm:"type:varchar(20);not null;index"`
	UpstreamOrderID *int64
	SyncedAt        *time.Time
	SyncAttempts    int       `gorm:"not null;default:0"`
	LastSyncError   string    `gorm:"type:text"`
	ReceiptPrinted  bool      `gorm:"not null;default:false"`
	Notes           string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null;index"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PosOrderModel) TableName() string {
	return "pos_orders"
}

// ToDomain converts the persistence model to a domain PosOrder
func (m *PosOrderModel) ToDomain() *trade.PosOrder {
	return &trade.PosOrder{
		ID:              m.ID,
		OrderNumber:     m.OrderNumber,
		CustomerID:      m.CustomerID,
		CustomerEmail:   m.CustomerEmail,
		CustomerName:    m.CustomerName,
		Items:           m.Items,
		Subtotal:        m.Subtotal,
		Discount:        m.Discount,
		Tax:             m.Tax,
		Total:           m.Total,
		AmountPaid:      m.AmountPaid,
		Change:          m.ChangeDue,
		PaymentMethod:   trade.PaymentMethod(m.PaymentMethod),
		Status:          trade.OrderStatus(m.Status),
		CashierID:       m.CashierID,
		CashierName:     m.CashierName,
		SyncState:       trade.SyncState(m.SyncState),
		UpstreamOrderID: m.UpstreamOrderID,
		SyncedAt:        m.SyncedAt,
		SyncAttempts:    m.SyncAttempts,
		LastSyncError:   m.LastSyncError,
		ReceiptPrinted:  m.ReceiptPrinted,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain PosOrder
func (m *PosOrderModel) FromDomain(o *trade.PosOrder) {
	m.ID = o.ID
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.CustomerEmail = o.CustomerEmail
	m.CustomerName = o.CustomerName
	m.Items = o.Items
	m.Subtotal = o.Subtotal
	m.Discount = o.Discount
	m.Tax = o.Tax
	m.Total = o.Total
	m.AmountPaid = o.AmountPaid
	m.ChangeDue = o.Change
	m.PaymentMethod = string(o.PaymentMethod)
	m.Status = string(o.Status)
	m.CashierID = o.CashierID
	m.CashierName = o.CashierName
	m.SyncState = string(o.SyncState)
	m.UpstreamOrderID = o.UpstreamOrderID
	m.SyncedAt = o.SyncedAt
	m.SyncAttempts = o.SyncAttempts
	m.LastSyncError = o.LastSyncError
	m.ReceiptPrinted = o.ReceiptPrinted
	m.Notes = o.Notes
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
}
