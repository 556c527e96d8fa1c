package persistence

import (
	"context"

	"github.com/storepos/backend/internal/domain/inventory"
	"github.com/storepos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockAdjustmentRepository implements inventory.StockAdjustmentRepository using GORM.
// It only inserts and reads; audit rows are never updated.
type GormStockAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormStockAdjustmentRepository creates a new GormStockAdjustmentRepository
func NewGormStockAdjustmentRepository(db *gorm.DB) *GormStockAdjustmentRepository {
	return &GormStockAdjustmentRepository{db: db}
}

// Append records a new adjustment
func (r *GormStockAdjustmentRepository) Append(ctx context.Context, adjustment *inventory.StockAdjustment) error {
	var model models.StockAdjustmentModel
	model.FromDomain(adjustment)
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListForProduct returns a product's adjustments, newest first
func (r *GormStockAdjustmentRepository) ListForProduct(ctx context.Context, productID int64, limit int) ([]inventory.StockAdjustment, error) {
	var rows []models.StockAdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit, defaultListLimit, maxListLimit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	adjustments := make([]inventory.StockAdjustment, len(rows))
	for i := range rows {
		adjustments[i] = *rows[i].ToDomain()
	}
	return adjustments, nil
}

// Ensure GormStockAdjustmentRepository implements StockAdjustmentRepository
var _ inventory.StockAdjustmentRepository = (*GormStockAdjustmentRepository)(nil)
