package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/storepos/backend/internal/application/catalog"
	"github.com/storepos/backend/internal/domain/catalog"
)

// CustomerDirectory is the customer side of the catalog cache
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id int64) (*catalog.Customer, error)
	ListCustomers(ctx context.Context, search string, limit int) ([]catalog.Customer, error)
	SyncCustomers(ctx context.Context) (int, error)
	CreateCustomer(ctx context.Context, req catalogapp.CreateCustomerRequest) (*catalog.Customer, error)
}

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	BaseHandler
	customers CustomerDirectory
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers CustomerDirectory) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// List returns cached customers filtered by name or email.
// GET /customers?search=&limit=
func (h *CustomerHandler) List(c *gin.Context) {
	q, ok := bindLimitQuery(c)
	if !ok {
		return
	}

	customers, err := h.customers.ListCustomers(c.Request.Context(), strings.TrimSpace(q.Search), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, catalogapp.ToCustomerResponses(customers), len(customers), q.Limit)
}

// Get returns one cached customer.
// GET /customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.int64Param(c, "id")
	if !ok {
		return
	}

	customer, err := h.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ToCustomerResponse(customer))
}

// Create registers a customer upstream and caches the result.
// POST /customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req catalogapp.CreateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, catalogapp.ToCustomerResponse(customer))
}

// Sync refreshes the whole customer cache from upstream.
// POST /customers/sync
func (h *CustomerHandler) Sync(c *gin.Context) {
	count, err := h.customers.SyncCustomers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.SyncResponse{Count: count, SyncedAt: time.Now().UTC()})
}
