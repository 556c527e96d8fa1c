package identity

import (
	"time"

	"github.com/storepos/backend/internal/domain/identity"
)

// LoginInput represents a till sign-in
type LoginInput struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1,max=128"`
	IP       string `json:"-"`
}

// LoginResult is returned on a successful sign-in
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the public view of a cashier
type UserInfo struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	DisplayName string        `json:"display_name"`
	Role        identity.Role `json:"role"`
}

// Actor is the authenticated cashier behind a request
type Actor struct {
	UserInfo
	TokenID   string
	ExpiresAt time.Time
}

// HasAnyRole reports whether the actor holds one of roles
func (a *Actor) HasAnyRole(roles ...identity.Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func toUserInfo(c *identity.Cashier) UserInfo {
	return UserInfo{
		ID:          c.ID,
		Username:    c.Username,
		DisplayName: c.DisplayNameOrUsername(),
		Role:        c.Role,
	}
}
