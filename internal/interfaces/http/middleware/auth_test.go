package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	appidentity "github.com/storepos/backend/internal/application/identity"
	"github.com/storepos/backend/internal/domain/identity"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthenticator is a mock implementation of Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*appidentity.Actor, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.Actor), args.Error(1)
}

func testActor(role identity.Role) *appidentity.Actor {
	return &appidentity.Actor{
		UserInfo: appidentity.UserInfo{
			ID:          "c-1",
			Username:    "dana",
			DisplayName: "Dana",
			Role:        role,
		},
		TokenID: "jti-1",
	}
}

func newAuthRouter(authn Authenticator, guard ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Auth(AuthConfig{
		Authenticator: authn,
		SkipPaths:     DefaultSkipPaths(),
	}))
	handlers := append(guard, func(c *gin.Context) {
		actor := GetActor(c)
		c.JSON(http.StatusOK, dto.NewSuccessResponse(actor.UserInfo))
	})
	router.GET("/api/v1/protected", handlers...)
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func serve(router *gin.Engine, path, token string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestAuth(t *testing.T) {
	t.Run("valid token stores the actor", func(t *testing.T) {
		authn := new(MockAuthenticator)
		authn.On("Authenticate", mock.Anything, "good-token").Return(testActor(identity.RoleCashier), nil)

		w, resp := serve(newAuthRouter(authn), "/api/v1/protected", "Bearer good-token")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		authn.AssertExpectations(t)
	})

	t.Run("missing header", func(t *testing.T) {
		authn := new(MockAuthenticator)

		w, resp := serve(newAuthRouter(authn), "/api/v1/protected", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, shared.CodeUnauthorized, resp.Error.Code)
		authn.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		authn := new(MockAuthenticator)

		w, _ := serve(newAuthRouter(authn), "/api/v1/protected", "Basic abc")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejected token", func(t *testing.T) {
		authn := new(MockAuthenticator)
		authn.On("Authenticate", mock.Anything, "old").
			Return(nil, shared.NewDomainError(shared.CodeUnauthorized, "Session has expired"))

		w, resp := serve(newAuthRouter(authn), "/api/v1/protected", "Bearer old")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Session has expired", resp.Error.Message)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("session store down", func(t *testing.T) {
		authn := new(MockAuthenticator)
		authn.On("Authenticate", mock.Anything, "tok").
			Return(nil, shared.NewUpstreamUnavailable("session store unavailable", nil))

		w, _ := serve(newAuthRouter(authn), "/api/v1/protected", "Bearer tok")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("skip paths need no token", func(t *testing.T) {
		authn := new(MockAuthenticator)

		w, _ := serve(newAuthRouter(authn), "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	guard := RequireRole(identity.RoleAdmin, identity.RoleManager)

	t.Run("allowed role", func(t *testing.T) {
		authn := new(MockAuthenticator)
		authn.On("Authenticate", mock.Anything, "m").Return(testActor(identity.RoleManager), nil)

		w, _ := serve(newAuthRouter(authn, guard), "/api/v1/protected", "Bearer m")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		authn := new(MockAuthenticator)
		authn.On("Authenticate", mock.Anything, "c").Return(testActor(identity.RoleCashier), nil)

		w, resp := serve(newAuthRouter(authn, guard), "/api/v1/protected", "Bearer c")

		assert.Equal(t, http.StatusForbidden, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, shared.CodeForbidden, resp.Error.Code)
	})

	t.Run("no actor is unauthorized", func(t *testing.T) {
		router := gin.New()
		router.GET("/x", guard, func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
