package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/storepos/backend/internal/application/identity"
)

// Authenticator signs cashiers in and out
type Authenticator interface {
	Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error)
	Logout(ctx context.Context, actor *identity.Actor) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	auth Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges credentials for a bearer token.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input identity.LoginInput
	if !bindJSON(c, &input) {
		return
	}
	input.IP = c.ClientIP()

	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Me returns the signed-in cashier.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	h.Success(c, actor.UserInfo)
}

// Logout revokes the current token.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	if err := h.auth.Logout(c.Request.Context(), actor); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Logged out"})
}
