package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	appidentity "github.com/storepos/backend/internal/application/identity"
	"github.com/storepos/backend/internal/domain/identity"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/infrastructure/logger"
	"github.com/storepos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Auth context keys
const (
	ActorKey      = "auth_actor"
	CashierIDKey  = "cashier_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Authenticator resolves a bearer token to the cashier behind it
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*appidentity.Actor, error)
}

// AuthConfig holds configuration for the auth middleware
type AuthConfig struct {
	Authenticator Authenticator
	// SkipPaths are full paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultSkipPaths are reachable without a session
func DefaultSkipPaths() []string {
	return []string{
		"/health",
		"/ready",
		"/api/v1/health",
		"/api/v1/ready",
		"/api/v1/auth/login",
	}
}

// Auth validates Bearer tokens and stores the actor in the gin context
func Auth(cfg AuthConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			abortWithError(c, shared.NewDomainError(shared.CodeUnauthorized, "Authentication required"))
			return
		}

		actor, err := cfg.Authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			cfg.Logger.Warn("Authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			abortWithError(c, err)
			return
		}

		c.Set(ActorKey, actor)
		c.Set(CashierIDKey, actor.ID)

		ctx, _ := logger.WithCashierID(c.Request.Context(), logger.FromContext(c.Request.Context()), actor.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

// RequireRole lets the request through only for actors holding one of roles
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			abortWithError(c, shared.NewDomainError(shared.CodeUnauthorized, "Authentication required"))
			return
		}
		if !actor.HasAnyRole(roles...) {
			abortWithError(c, shared.NewDomainError(shared.CodeForbidden, "Your role does not allow this action"))
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated actor, or nil
func GetActor(c *gin.Context) *appidentity.Actor {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(*appidentity.Actor); ok {
			return actor
		}
	}
	return nil
}

func abortWithError(c *gin.Context, err error) {
	code := dto.ErrCodeInternal
	message := "An unexpected error occurred"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
	}
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
