package identity

import (
	"testing"

	"github.com/storepos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{" Manager ", RoleManager, false},
		{"CASHIER", RoleCashier, false},
		{"owner", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCashier_VerifyPassword(t *testing.T) {
	hash, err := HashPassword("till-secret")
	require.NoError(t, err)

	c := &Cashier{Username: "sam", PasswordHash: hash}
	assert.True(t, c.VerifyPassword("till-secret"))
	assert.False(t, c.VerifyPassword("till-secret "))
	assert.False(t, (&Cashier{}).VerifyPassword(""))
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := HashPassword("abc")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCashier_Roles(t *testing.T) {
	c := &Cashier{Username: "sam", Role: RoleCashier}
	assert.Equal(t, "sam", c.DisplayNameOrUsername())
	assert.True(t, c.HasAnyRole(RoleCashier, RoleAdmin))
	assert.False(t, c.HasAnyRole(RoleAdmin, RoleManager))

	c.DisplayName = "Sam P."
	assert.Equal(t, "Sam P.", c.DisplayNameOrUsername())
}
