package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/storepos/backend/internal/application/catalog"
	"github.com/storepos/backend/internal/domain/catalog"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupCustomerRouter(svc CustomerDirectory) *gin.Engine {
	h := NewCustomerHandler(svc)
	router := newTestRouter(testCashier("cashier"))
	router.GET("/customers", h.List)
	router.GET("/customers/:id", h.Get)
	router.POST("/customers", h.Create)
	router.POST("/customers/sync", h.Sync)
	return router
}

func TestCustomerHandler_List(t *testing.T) {
	svc := new(MockCustomerDirectory)
	svc.On("ListCustomers", mock.Anything, "", DefaultListLimit).
		Return([]catalog.Customer{{ID: 1, Email: "ana@example.com", FirstName: "Ana"}}, nil)

	w, resp := doJSON(setupCustomerRouter(svc), http.MethodGet, "/customers", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var items []catalogapp.CustomerResponse
	decodeData(t, resp, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "ana@example.com", items[0].Email)
}

func TestCustomerHandler_Get(t *testing.T) {
	svc := new(MockCustomerDirectory)
	svc.On("GetCustomer", mock.Anything, int64(44)).Return(nil, shared.NewNotFound("customer 44 not found"))

	w, resp := doJSON(setupCustomerRouter(svc), http.MethodGet, "/customers/44", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, shared.CodeNotFound, resp.Error.Code)
}

func TestCustomerHandler_Create(t *testing.T) {
	t.Run("created upstream", func(t *testing.T) {
		svc := new(MockCustomerDirectory)
		svc.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(req catalogapp.CreateCustomerRequest) bool {
			return req.Email == "li@example.com" && req.FirstName == "Li"
		})).Return(&catalog.Customer{ID: 91, Email: "li@example.com", FirstName: "Li"}, nil)

		w, resp := doJSON(setupCustomerRouter(svc), http.MethodPost, "/customers",
			map[string]any{"email": "li@example.com", "first_name": "Li"})

		assert.Equal(t, http.StatusCreated, w.Code)
		var out catalogapp.CustomerResponse
		decodeData(t, resp, &out)
		assert.Equal(t, int64(91), out.ID)
	})

	t.Run("bad email", func(t *testing.T) {
		svc := new(MockCustomerDirectory)

		w, resp := doJSON(setupCustomerRouter(svc), http.MethodPost, "/customers",
			map[string]any{"email": "not-an-email"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		svc.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("upstream down", func(t *testing.T) {
		svc := new(MockCustomerDirectory)
		svc.On("CreateCustomer", mock.Anything, mock.Anything).
			Return(nil, shared.NewUpstreamUnavailable("commerce platform unreachable", nil))

		w, _ := doJSON(setupCustomerRouter(svc), http.MethodPost, "/customers",
			map[string]any{"email": "li@example.com"})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestCustomerHandler_Sync(t *testing.T) {
	svc := new(MockCustomerDirectory)
	svc.On("SyncCustomers", mock.Anything).Return(12, nil)

	w, resp := doJSON(setupCustomerRouter(svc), http.MethodPost, "/customers/sync", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var out catalogapp.SyncResponse
	decodeData(t, resp, &out)
	assert.Equal(t, 12, out.Count)
}
