package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/storepos/backend/internal/domain/identity"
	"github.com/storepos/backend/internal/domain/shared"
	"github.com/storepos/backend/internal/infrastructure/config"
)

// ConfigDirectory serves the cashier accounts listed under auth.users
type ConfigDirectory struct {
	byID       map[string]*identity.Cashier
	byUsername map[string]*identity.Cashier
}

// NewConfigDirectory validates the configured accounts. Usernames match
// case-insensitively and must be unique, as must ids.
func NewConfigDirectory(users []config.UserConfig) (*ConfigDirectory, error) {
	d := &ConfigDirectory{
		byID:       make(map[string]*identity.Cashier, len(users)),
		byUsername: make(map[string]*identity.Cashier, len(users)),
	}
	for i, u := range users {
		if u.ID == "" || u.Username == "" {
			return nil, fmt.Errorf("auth.users[%d]: id and username are required", i)
		}
		if !strings.HasPrefix(u.PasswordHash, "$2") {
			return nil, fmt.Errorf("auth.users[%d]: password_hash must be a bcrypt hash", i)
		}
		role, err := identity.ParseRole(u.Role)
		if err != nil {
			return nil, fmt.Errorf("auth.users[%d]: %w", i, err)
		}
		key := strings.ToLower(u.Username)
		if _, dup := d.byUsername[key]; dup {
			return nil, fmt.Errorf("auth.users[%d]: duplicate username %q", i, u.Username)
		}
		if _, dup := d.byID[u.ID]; dup {
			return nil, fmt.Errorf("auth.users[%d]: duplicate id %q", i, u.ID)
		}
		c := &identity.Cashier{
			ID:           u.ID,
			Username:     u.Username,
			DisplayName:  u.DisplayName,
			Role:         role,
			PasswordHash: u.PasswordHash,
		}
		d.byID[c.ID] = c
		d.byUsername[key] = c
	}
	return d, nil
}

// FindByUsername returns the account or shared.ErrNotFound
func (d *ConfigDirectory) FindByUsername(_ context.Context, username string) (*identity.Cashier, error) {
	c, ok := d.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// FindByID returns the account or shared.ErrNotFound
func (d *ConfigDirectory) FindByID(_ context.Context, id string) (*identity.Cashier, error) {
	c, ok := d.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// Len returns the number of accounts
func (d *ConfigDirectory) Len() int {
	return len(d.byID)
}

var _ identity.CashierDirectory = (*ConfigDirectory)(nil)
