package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared"
)

type productEntry struct {
	product catalog.Product
	folded  string
}

// productSnapshot is immutable once published
type productSnapshot struct {
	byID  map[int64]*productEntry
	bySKU map[string]int64
	order []int64 // by name, then id
}

func newProductSnapshot(entries map[int64]*productEntry) *productSnapshot {
	s := &productSnapshot{
		byID:  entries,
		bySKU: make(map[string]int64, len(entries)),
		order: make([]int64, 0, len(entries)),
	}
	for id, e := range entries {
		s.order = append(s.order, id)
		if sku := e.product.SKU; sku != "" {
			if existing, ok := s.bySKU[sku]; !ok || id < existing {
				s.bySKU[sku] = id
			}
		}
	}
	sort.Slice(s.order, func(i, j int) bool {
		a, b := entries[s.order[i]], entries[s.order[j]]
		if a.product.Name != b.product.Name {
			return a.product.Name < b.product.Name
		}
		return a.product.ID < b.product.ID
	})
	return s
}

func newProductEntry(p catalog.Product) *productEntry {
	c := p.Clone()
	c.Normalize()
	return &productEntry{
		product: c,
		folded:  catalog.FoldCase(c.Name) + "\n" + catalog.FoldCase(c.SKU),
	}
}

// ProductStore is the in-memory catalog cache. Readers load the current
// snapshot without locking; writers serialize on mu and publish a new
// snapshot, so ReplaceAll is observed all at once.
type ProductStore struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[productSnapshot]
	now      func() time.Time
}

// NewProductStore creates an empty in-memory product cache
func NewProductStore() *ProductStore {
	s := &ProductStore{now: time.Now}
	s.snapshot.Store(newProductSnapshot(map[int64]*productEntry{}))
	return s
}

// Get returns a copy of the cached product
func (s *ProductStore) Get(_ context.Context, id int64) (*catalog.Product, error) {
	e, ok := s.snapshot.Load().byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	p := e.product.Clone()
	return &p, nil
}

// GetBySKU returns the product with exactly this SKU
func (s *ProductStore) GetBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	id, ok := s.snapshot.Load().bySKU[sku]
	if !ok || sku == "" {
		return nil, shared.ErrNotFound
	}
	return s.Get(ctx, id)
}

// Search returns products whose name or SKU contains text, ignoring case
func (s *ProductStore) Search(_ context.Context, text string, limit int) ([]catalog.Product, error) {
	snap := s.snapshot.Load()
	needle := catalog.FoldCase(text)
	out := make([]catalog.Product, 0)
	for _, id := range snap.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		e := snap.byID[id]
		if needle == "" || strings.Contains(e.folded, needle) {
			out = append(out, e.product.Clone())
		}
	}
	return out, nil
}

// List returns products ordered by name
func (s *ProductStore) List(ctx context.Context, limit int) ([]catalog.Product, error) {
	return s.Search(ctx, "", limit)
}

// Count returns the number of cached products
func (s *ProductStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.snapshot.Load().byID)), nil
}

// ReplaceAll publishes a brand new snapshot
func (s *ProductStore) ReplaceAll(_ context.Context, products []catalog.Product) error {
	entries := make(map[int64]*productEntry, len(products))
	for _, p := range products {
		entries[p.ID] = newProductEntry(p)
	}
	next := newProductSnapshot(entries)

	s.mu.Lock()
	s.snapshot.Store(next)
	s.mu.Unlock()
	return nil
}

// mutate copies the current snapshot, applies fn and publishes the result
func (s *ProductStore) mutate(fn func(entries map[int64]*productEntry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshot.Load()
	entries := make(map[int64]*productEntry, len(current.byID)+1)
	for id, e := range current.byID {
		entries[id] = e
	}
	if err := fn(entries); err != nil {
		return err
	}
	s.snapshot.Store(newProductSnapshot(entries))
	return nil
}

// Upsert inserts or replaces a single product
func (s *ProductStore) Upsert(_ context.Context, product *catalog.Product) error {
	if product.ID <= 0 {
		return shared.NewInvalidInput("product id must be positive")
	}
	return s.mutate(func(entries map[int64]*productEntry) error {
		entries[product.ID] = newProductEntry(*product)
		return nil
	})
}

// Patch applies a partial update and returns the stored result
func (s *ProductStore) Patch(_ context.Context, id int64, patch catalog.ProductPatch) (*catalog.Product, error) {
	var updated catalog.Product
	err := s.mutate(func(entries map[int64]*productEntry) error {
		e, ok := entries[id]
		if !ok {
			return shared.ErrNotFound
		}
		p := e.product.Clone()
		if err := patch.Check(&p); err != nil {
			return err
		}
		patch.Apply(&p, s.now())
		entries[id] = newProductEntry(p)
		updated = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a product explicitly
func (s *ProductStore) Delete(_ context.Context, id int64) error {
	return s.mutate(func(entries map[int64]*productEntry) error {
		if _, ok := entries[id]; !ok {
			return shared.ErrNotFound
		}
		delete(entries, id)
		return nil
	})
}

var _ catalog.ProductStore = (*ProductStore)(nil)
