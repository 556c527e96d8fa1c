package models

import "time"

// Timestamps provides the bookkeeping columns shared by every table
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AllModels lists every persistence model, in dependency order, for AutoMigrate
func AllModels() []any {
	return []any{
		&ProductModel{},
		&CustomerModel{},
		&PosOrderModel{},
		&StockAdjustmentModel{},
	}
}
