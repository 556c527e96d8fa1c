package integration

import (
	"context"
	"time"

	"github.com/storepos/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// CommercePlatform Errors
// ---------------------------------------------------------------------------

var (
	// ErrPlatformNotConfigured is returned when no store URL or credentials are set
	ErrPlatformNotConfigured = shared.NewDomainError(shared.CodeUpstreamUnavailable, "commerce platform is not configured")
	// ErrPlatformInvalidResponse is returned when upstream answers with a body that fails its schema
	ErrPlatformInvalidResponse = shared.NewDomainError(shared.CodeUpstreamUnavailable, "commerce platform returned an invalid response")
)

// MetaKeyPosOrderID tags an upstream order with the local order id
const MetaKeyPosOrderID = "_pos_order_id"

// MetaKeyPosOrderNumber tags an upstream order with the receipt number
const MetaKeyPosOrderNumber = "_pos_order_number"

// MetaKeyPosCashier tags an upstream order with the cashier's name
const MetaKeyPosCashier = "_pos_cashier"

// MaxPageSize is the largest page the platform serves
const MaxPageSize = 100

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// ProductQuery filters a product listing
type ProductQuery struct {
	Page     int
	PerPage  int
	Search   string
	Category string
	SKU      string
	Status   string
}

// CustomerQuery filters a customer listing
type CustomerQuery struct {
	Page    int
	PerPage int
	Search  string
	Email   string
}

// OrderQuery filters an order listing
type OrderQuery struct {
	Page    int
	PerPage int
	Search  string
	OrderBy string
	Order   string
	After   time.Time // orders created after this instant; zero means no bound
}

// ---------------------------------------------------------------------------
// CommercePlatform Port
// ---------------------------------------------------------------------------

// CommercePlatform is the upstream system of record. Implementations are
// stateless, carry a bounded timeout and never retry; callers retry.
//
// Errors are classified as shared.ErrUpstreamUnavailable (network, timeout,
// 5xx, undecodable body) or shared.ErrUpstreamRejected (4xx). A 404 on a
// single-resource read is shared.ErrNotFound.
type CommercePlatform interface {
	// ListProducts returns one page of products
	ListProducts(ctx context.Context, query ProductQuery) ([]PlatformProduct, error)

	// GetProduct returns a single product
	GetProduct(ctx context.Context, id int64) (*PlatformProduct, error)

	// UpdateProductStock sets the upstream stock quantity of a product
	UpdateProductStock(ctx context.Context, id int64, quantity int) (*PlatformProduct, error)

	// ListCustomers returns one page of customers
	ListCustomers(ctx context.Context, query CustomerQuery) ([]PlatformCustomer, error)

	// CreateCustomer creates a customer upstream
	CreateCustomer(ctx context.Context, req CustomerCreateRequest) (*PlatformCustomer, error)

	// CreateOrder creates an order upstream
	CreateOrder(ctx context.Context, req OrderCreateRequest) (*PlatformOrder, error)

	// ListOrders returns one page of upstream orders
	ListOrders(ctx context.Context, query OrderQuery) ([]PlatformOrder, error)

	// FindOrderByPosID looks for an upstream order tagged with the local order
	// id among orders created since placedAt. It returns shared.ErrNotFound
	// when none exists.
	FindOrderByPosID(ctx context.Context, posOrderID string, placedAt time.Time) (*PlatformOrder, error)

	// SystemStatus returns the platform's environment report
	SystemStatus(ctx context.Context) (*SystemStatus, error)
}
