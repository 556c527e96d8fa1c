package cache

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared"
)

type customerSnapshot struct {
	byID  map[int64]catalog.Customer
	order []int64
}

func newCustomerSnapshot(byID map[int64]catalog.Customer) *customerSnapshot {
	s := &customerSnapshot{byID: byID, order: make([]int64, 0, len(byID))}
	for id := range byID {
		s.order = append(s.order, id)
	}
	sort.Slice(s.order, func(i, j int) bool {
		a, b := byID[s.order[i]], byID[s.order[j]]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})
	return s
}

// CustomerStore is the in-memory customer cache, copy-on-write like ProductStore
type CustomerStore struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[customerSnapshot]
}

// NewCustomerStore creates an empty in-memory customer cache
func NewCustomerStore() *CustomerStore {
	s := &CustomerStore{}
	s.snapshot.Store(newCustomerSnapshot(map[int64]catalog.Customer{}))
	return s
}

// Get returns the cached customer
func (s *CustomerStore) Get(_ context.Context, id int64) (*catalog.Customer, error) {
	c, ok := s.snapshot.Load().byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

// Search matches email, first name, last name and display name
func (s *CustomerStore) Search(_ context.Context, text string, limit int) ([]catalog.Customer, error) {
	snap := s.snapshot.Load()
	needle := catalog.FoldCase(text)
	out := make([]catalog.Customer, 0)
	for _, id := range snap.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		c := snap.byID[id]
		if c.Matches(needle, catalog.FoldCase) {
			out = append(out, c)
		}
	}
	return out, nil
}

// List returns customers ordered by name
func (s *CustomerStore) List(ctx context.Context, limit int) ([]catalog.Customer, error) {
	return s.Search(ctx, "", limit)
}

// Count returns the number of cached customers
func (s *CustomerStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.snapshot.Load().byID)), nil
}

// ReplaceAll publishes a brand new snapshot
func (s *CustomerStore) ReplaceAll(_ context.Context, customers []catalog.Customer) error {
	byID := make(map[int64]catalog.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	next := newCustomerSnapshot(byID)

	s.mu.Lock()
	s.snapshot.Store(next)
	s.mu.Unlock()
	return nil
}

// Upsert inserts or replaces a single customer
func (s *CustomerStore) Upsert(_ context.Context, customer *catalog.Customer) error {
	if customer.ID <= 0 {
		return shared.NewInvalidInput("customer id must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snapshot.Load()
	byID := make(map[int64]catalog.Customer, len(current.byID)+1)
	for id, c := range current.byID {
		byID[id] = c
	}
	byID[customer.ID] = *customer
	s.snapshot.Store(newCustomerSnapshot(byID))
	return nil
}

var _ catalog.CustomerStore = (*CustomerStore)(nil)
