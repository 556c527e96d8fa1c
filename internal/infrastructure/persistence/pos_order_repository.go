package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/domain/trade"
	"github.com/storepos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPosOrderRepository implements trade.PosOrderRepository using GORM
type GormPosOrderRepository struct {
	db *gorm.DB
}

// NewGormPosOrderRepository creates a new GormPosOrderRepository
func NewGormPosOrderRepository(db *gorm.DB) *GormPosOrderRepository {
	return &GormPosOrderRepository{db: db}
}

// Create stores a new order
func (r *GormPosOrderRepository) Create(ctx context.Context, order *trade.PosOrder) error {
	var model models.PosOrderModel
	model.FromDomain(order)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID finds an order by its local id
func (r *GormPosOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PosOrder, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByOrderNumber finds an order by its receipt number
func (r *GormPosOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*trade.PosOrder, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

func (r *GormPosOrderRepository) findOne(ctx context.Context, query string, arg any) (*trade.PosOrder, error) {
	var model models.PosOrderModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListRecent returns orders newest first. Ids are time-ordered so they break ties.
func (r *GormPosOrderRepository) ListRecent(ctx context.Context, limit int) ([]trade.PosOrder, error) {
	var rows []models.PosOrderModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit, defaultListLimit, maxListLimit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(rows), nil
}

// ListUnsynced returns every unsynced order, oldest first
func (r *GormPosOrderRepository) ListUnsynced(ctx context.Context) ([]trade.PosOrder, error) {
	var rows []models.PosOrderModel
	if err := r.db.WithContext(ctx).
		Where("sync_state = ?", string(trade.SyncStateUnsynced)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(rows), nil
}

// MarkSynced is a conditional update, so only the first caller wins
func (r *GormPosOrderRepository) MarkSynced(ctx context.Context, id uuid.UUID, upstreamOrderID int64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PosOrderModel{}).
		Where("id = ? AND sync_state = ?", id, string(trade.SyncStateUnsynced)).
		Updates(map[string]any{
			"sync_state":        string(trade.SyncStateSynced),
			"upstream_order_id": upstreamOrderID,
			"synced_at":         at,
			"last_sync_error":   "",
			"updated_at":        at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}
	if err := r.ensureExists(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// RecordSyncFailure bumps the attempt counter of an unsynced order
func (r *GormPosOrderRepository) RecordSyncFailure(ctx context.Context, id uuid.UUID, message string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PosOrderModel{}).
		Where("id = ? AND sync_state = ?", id, string(trade.SyncStateUnsynced)).
		Updates(map[string]any{
			"sync_attempts":   gorm.Expr("sync_attempts + 1"),
			"last_sync_error": message,
			"updated_at":      at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.ensureExists(ctx, id)
	}
	return nil
}

// MarkReceiptPrinted sets the receipt-printed flag
func (r *GormPosOrderRepository) MarkReceiptPrinted(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PosOrderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"receipt_printed": true, "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Summarize aggregates order figures for the dashboard
func (r *GormPosOrderRepository) Summarize(ctx context.Context, since time.Time) (*trade.OrderSummary, error) {
	db := r.db.WithContext(ctx).Model(&models.PosOrderModel{})
	completed := string(trade.OrderStatusCompleted)

	var today struct {
		Sales  decimal.NullDecimal
		Orders int64
	}
	if err := db.Session(&gorm.Session{}).
		Select("SUM(total) AS sales, COUNT(*) AS orders").
		Where("status = ? AND created_at >= ?", completed, since).
		Scan(&today).Error; err != nil {
		return nil, err
	}

	summary := &trade.OrderSummary{
		SalesSince:  decimal.Zero,
		OrdersSince: today.Orders,
	}
	if today.Sales.Valid {
		summary.SalesSince = today.Sales.Decimal.Round(2)
	}
	if err := db.Session(&gorm.Session{}).Where("status = ?", completed).Count(&summary.CompletedOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).Where("sync_state = ?", string(trade.SyncStateUnsynced)).Count(&summary.UnsyncedOrders).Error; err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *GormPosOrderRepository) ensureExists(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PosOrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func ordersToDomain(rows []models.PosOrderModel) []trade.PosOrder {
	orders := make([]trade.PosOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

// Ensure GormPosOrderRepository implements PosOrderRepository
var _ trade.PosOrderRepository = (*GormPosOrderRepository)(nil)
