package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/integration"
	"github.com/storepos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// GetCustomer returns a cached customer. The platform has no cheap lookup by
// id, so under the single policy a miss stays a miss; bulk refreshes first.
func (s *CatalogService) GetCustomer(ctx context.Context, id int64) (*catalog.Customer, error) {
	if id <= 0 {
		return nil, shared.NewInvalidInput("customer id must be positive")
	}
	customer, err := s.customers.Get(ctx, id)
	if err == nil {
		s.recordLookup(ctx, "customer", true)
		return customer, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	s.recordLookup(ctx, "customer", false)

	if s.policy != MissPolicyBulk {
		return nil, err
	}
	if _, err := s.refreshCustomers(ctx); err != nil {
		return nil, missError(err)
	}
	return s.customers.Get(ctx, id)
}

// ListCustomers lists or searches cached customers, treating an empty cache as a miss
func (s *CatalogService) ListCustomers(ctx context.Context, search string, limit int) ([]catalog.Customer, error) {
	limit = s.clampLimit(limit)
	customers, err := s.queryCustomers(ctx, search, limit)
	if err != nil || len(customers) > 0 {
		return customers, err
	}
	count, err := s.customers.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return customers, nil
	}
	s.recordLookup(ctx, "customer_list", false)

	if s.policy == MissPolicyBulk {
		if _, err := s.refreshCustomers(ctx); err != nil {
			return nil, missError(err)
		}
		return s.queryCustomers(ctx, search, limit)
	}

	page, err := s.platform.ListCustomers(ctx, integration.CustomerQuery{
		Page:    1,
		PerPage: s.pageSize,
		Search:  strings.TrimSpace(search),
	})
	if err != nil {
		return nil, missError(err)
	}
	now := s.now()
	result := make([]catalog.Customer, 0, len(page))
	for i := range page {
		customer, err := page[i].ToCustomer(now)
		if err != nil {
			s.logger.Warn("Skipping upstream customer", zap.Int64("customer_id", page[i].ID), zap.Error(err))
			continue
		}
		if err := s.customers.Upsert(ctx, &customer); err != nil {
			return nil, err
		}
		if len(result) < limit {
			result = append(result, customer)
		}
	}
	return result, nil
}

// SyncCustomers replaces the customer cache with a full paginated upstream read
func (s *CatalogService) SyncCustomers(ctx context.Context) (int, error) {
	return s.refreshCustomers(ctx)
}

func (s *CatalogService) refreshCustomers(ctx context.Context) (int, error) {
	v, err := s.shareFetch(ctx, "sync:customers", func(ctx context.Context) (any, error) {
		now := s.now()
		var customers []catalog.Customer
		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				return 0, shared.NewUpstreamUnavailable("customer refresh cancelled", err)
			}
			batch, err := s.platform.ListCustomers(ctx, integration.CustomerQuery{Page: page, PerPage: s.pageSize})
			if err != nil {
				return 0, err
			}
			for i := range batch {
				customer, err := batch[i].ToCustomer(now)
				if err != nil {
					s.logger.Warn("Skipping upstream customer", zap.Int64("customer_id", batch[i].ID), zap.Error(err))
					continue
				}
				customers = append(customers, customer)
			}
			if len(batch) < s.pageSize {
				break
			}
		}
		if err := s.customers.ReplaceAll(ctx, customers); err != nil {
			return 0, fmt.Errorf("replace customer cache: %w", err)
		}
		s.logger.Info("Customer cache refreshed", zap.Int("count", len(customers)))
		return len(customers), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// CreateCustomer registers a customer upstream, then caches the stored copy.
// Billing and shipping default to the customer's names, and the phone goes on billing.
func (s *CatalogService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*catalog.Customer, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, shared.NewInvalidInput("email is required")
	}
	body := integration.NewCustomerCreateRequest(req.Email, req.FirstName, req.LastName, req.Phone, req.Billing, req.Shipping)
	remote, err := s.platform.CreateCustomer(ctx, body)
	if err != nil {
		return nil, err
	}
	customer, err := remote.ToCustomer(s.now())
	if err != nil {
		return nil, shared.NewUpstreamUnavailable("upstream customer is malformed", err)
	}
	if err := s.customers.Upsert(ctx, &customer); err != nil {
		return nil, err
	}
	s.logger.Info("Customer created upstream", zap.Int64("customer_id", customer.ID))
	return &customer, nil
}

// CountCustomers returns the number of cached customers
func (s *CatalogService) CountCustomers(ctx context.Context) (int64, error) {
	return s.customers.Count(ctx)
}

func (s *CatalogService) queryCustomers(ctx context.Context, search string, limit int) ([]catalog.Customer, error) {
	if strings.TrimSpace(search) != "" {
		return s.customers.Search(ctx, search, limit)
	}
	return s.customers.List(ctx, limit)
}
