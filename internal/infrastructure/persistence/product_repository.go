package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
	insertBatchSize  = 100
)

// GormProductRepository implements catalog.ProductStore using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Get finds a product by its upstream id
func (r *GormProductRepository) Get(ctx context.Context, id int64) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetBySKU finds a product by exact SKU
func (r *GormProductRepository) GetBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	if sku == "" {
		return nil, shared.ErrNotFound
	}
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).Order("id ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Search finds products whose name or SKU contains text, ignoring case
func (r *GormProductRepository) Search(ctx context.Context, text string, limit int) ([]catalog.Product, error) {
	var rows []models.ProductModel
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if catalog.FoldCase(text) != "" {
		query = query.Where(`search_text LIKE ? ESCAPE '\'`, containsPattern(text))
	}
	if err := query.Order("name ASC, id ASC").Limit(clampLimit(limit, defaultListLimit, maxListLimit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// List returns products ordered by name
func (r *GormProductRepository) List(ctx context.Context, limit int) ([]catalog.Product, error) {
	return r.Search(ctx, "", limit)
}

// Count returns the number of cached products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceAll swaps the whole product table inside one transaction
func (r *GormProductRepository) ReplaceAll(ctx context.Context, products []catalog.Product) error {
	rows := make([]models.ProductModel, len(products))
	for i := range products {
		p := products[i].Clone()
		p.Normalize()
		rows[i].FromDomain(&p)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ProductModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}

// Upsert inserts or replaces a single product
func (r *GormProductRepository) Upsert(ctx context.Context, product *catalog.Product) error {
	p := product.Clone()
	p.Normalize()
	var model models.ProductModel
	model.FromDomain(&p)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&model).Error
}

// Patch applies a partial update under a row lock and returns the stored result
func (r *GormProductRepository) Patch(ctx context.Context, id int64, patch catalog.ProductPatch) (*catalog.Product, error) {
	var updated *catalog.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.ProductModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		p := model.ToDomain()
		if err := patch.Check(p); err != nil {
			return err
		}
		patch.Apply(p, time.Now())
		model.FromDomain(p)
		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a product
func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func productsToDomain(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

// Ensure GormProductRepository implements ProductStore
var _ catalog.ProductStore = (*GormProductRepository)(nil)
