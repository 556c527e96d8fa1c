package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Address is a billing or shipping block as stored by the commerce platform
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1,omitempty"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Customer is a locally cached copy of an upstream customer.
// OrdersCount and TotalSpent are informational and never recomputed locally.
type Customer struct {
	ID          int64
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
	Username    string
	Billing     Address
	Shipping    Address
	AvatarURL   string
	OrdersCount int
	TotalSpent  decimal.Decimal
	LastSyncAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName returns "first last", falling back to the display name
func (c *Customer) FullName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.DisplayName
	}
	return name
}

// Matches reports whether the folded needle occurs in email, names or display name
func (c *Customer) Matches(needle string, fold func(string) string) bool {
	if needle == "" {
		return true
	}
	for _, field := range []string{c.Email, c.FirstName, c.LastName, c.DisplayName} {
		if strings.Contains(fold(field), needle) {
			return true
		}
	}
	return false
}
