package persistence

import (
	"context"
	"errors"

	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements catalog.CustomerStore using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Get finds a customer by upstream id
func (r *GormCustomerRepository) Get(ctx context.Context, id int64) (*catalog.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Search matches email, first name, last name and display name
func (r *GormCustomerRepository) Search(ctx context.Context, text string, limit int) ([]catalog.Customer, error) {
	var rows []models.CustomerModel
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{})
	if catalog.FoldCase(text) != "" {
		query = query.Where(`search_text LIKE ? ESCAPE '\'`, containsPattern(text))
	}
	if err := query.Order("last_name ASC, first_name ASC, id ASC").
		Limit(clampLimit(limit, defaultListLimit, maxListLimit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	customers := make([]catalog.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}
	return customers, nil
}

// List returns customers ordered by name
func (r *GormCustomerRepository) List(ctx context.Context, limit int) ([]catalog.Customer, error) {
	return r.Search(ctx, "", limit)
}

// Count returns the number of cached customers
func (r *GormCustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceAll swaps the whole customer table inside one transaction
func (r *GormCustomerRepository) ReplaceAll(ctx context.Context, customers []catalog.Customer) error {
	rows := make([]models.CustomerModel, len(customers))
	for i := range customers {
		rows[i].FromDomain(&customers[i])
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CustomerModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}

// Upsert inserts or replaces a single customer
func (r *GormCustomerRepository) Upsert(ctx context.Context, customer *catalog.Customer) error {
	var model models.CustomerModel
	model.FromDomain(customer)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&model).Error
}

// Ensure GormCustomerRepository implements CustomerStore
var _ catalog.CustomerStore = (*GormCustomerRepository)(nil)
