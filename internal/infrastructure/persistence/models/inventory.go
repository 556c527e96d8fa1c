package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storepos/backend/internal/domain/inventory"
)

// StockAdjustmentModel is the persistence model for an append-only stock audit record
type StockAdjustmentModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID      int64     `gorm:"not null;index:idx_stock_adjustments_product_created,priority:1"`
	ActorID        string    `gorm:"type:varchar(100)"`
	ActorName      string    `gorm:"type:varchar(200)"`
	Kind           string    `gorm:"type:varchar(20);not null"`
	Magnitude      int       `gorm:"not null"`
	Delta          int       `gorm:"not null"`
	QuantityBefore int       `gorm:"not null"`
	QuantityAfter  int       `gorm:"not null"`
	Notes          string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"not null;index:idx_stock_adjustments_product_created,priority:2"`
}

// TableName returns the table name for GORM
func (StockAdjustmentModel) TableName() string {
	return "stock_adjustments"
}

// ToDomain converts the persistence model to a domain StockAdjustment
func (m *StockAdjustmentModel) ToDomain() *inventory.StockAdjustment {
	return &inventory.StockAdjustment{
		ID:             m.ID,
		ProductID:      m.ProductID,
		ActorID:        m.ActorID,
		ActorName:      m.ActorName,
		Kind:           inventory.AdjustmentKind(m.Kind),
		Magnitude:      m.Magnitude,
		Delta:          m.Delta,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain StockAdjustment
func (m *StockAdjustmentModel) FromDomain(a *inventory.StockAdjustment) {
	m.ID = a.ID
	m.ProductID = a.ProductID
	m.ActorID = a.ActorID
	m.ActorName = a.ActorName
	m.Kind = string(a.Kind)
	m.Magnitude = a.Magnitude
	m.Delta = a.Delta
	m.QuantityBefore = a.QuantityBefore
	m.QuantityAfter = a.QuantityAfter
	m.Notes = a.Notes
	m.CreatedAt = a.CreatedAt
}
