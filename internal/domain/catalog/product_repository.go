package catalog

import "context"

// ProductStore is the local product cache. Implementations never reach the
// network; a miss is reported as shared.ErrNotFound and the caller decides
// whether to fetch from upstream.
type ProductStore interface {
	// Get returns the product with the given upstream id
	Get(ctx context.Context, id int64) (*Product, error)

	// GetBySKU returns the product whose SKU equals sku exactly
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// Search returns products whose name or SKU contains text, case-insensitively
	Search(ctx context.Context, text string, limit int) ([]Product, error)

	// List returns up to limit products ordered by name
	List(ctx context.Context, limit int) ([]Product, error)

	// Count returns the number of cached products
	Count(ctx context.Context) (int64, error)

	// ReplaceAll atomically swaps the whole collection
	ReplaceAll(ctx context.Context, products []Product) error

	// Upsert inserts or replaces a single product
	Upsert(ctx context.Context, product *Product) error

	// Patch applies a partial update and returns the stored result
	Patch(ctx context.Context, id int64, patch ProductPatch) (*Product, error)

	// Delete removes a product explicitly
	Delete(ctx context.Context, id int64) error
}

// CustomerStore is the local customer cache
type CustomerStore interface {
	// Get returns the customer with the given upstream id
	Get(ctx context.Context, id int64) (*Customer, error)

	// Search matches email, first name, last name and display name
	Search(ctx context.Context, text string, limit int) ([]Customer, error)

	// List returns up to limit customers
	List(ctx context.Context, limit int) ([]Customer, error)

	// Count returns the number of cached customers
	Count(ctx context.Context) (int64, error)

	// ReplaceAll atomically swaps the whole collection
	ReplaceAll(ctx context.Context, customers []Customer) error

	// Upsert inserts or replaces a single customer
	Upsert(ctx context.Context, customer *Customer) error
}
