package identity

import (
	"context"
	"strings"

	"github.com/storepos/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is a till operator's permission level
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

// ParseRole parses a configured role name. Case and surrounding space are ignored.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewInvalidInput("unknown role: " + s)
	}
	return r, nil
}

// Password cost for bcrypt
const bcryptCost = 12

// Cashier is an account allowed to operate the till
type Cashier struct {
	ID           string
	Username     string
	DisplayName  string
	Role         Role
	PasswordHash string
}

// VerifyPassword checks password against the stored bcrypt hash
func (c *Cashier) VerifyPassword(password string) bool {
	if c.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

// DisplayNameOrUsername falls back to the username when no display name is set
func (c *Cashier) DisplayNameOrUsername() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Username
}

// HasAnyRole reports whether the cashier holds one of roles
func (c *Cashier) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// HashPassword returns the bcrypt hash operators put in auth.users
func HashPassword(password string) (string, error) {
	if len(password) < 6 {
		return "", shared.NewInvalidInput("password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CashierDirectory looks up till accounts
type CashierDirectory interface {
	FindByUsername(ctx context.Context, username string) (*Cashier, error)
	FindByID(ctx context.Context, id string) (*Cashier, error)
}
