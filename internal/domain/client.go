package domain

import (
	"strings"
	"time"
)

// MaxClientNameLength bounds Client.Name.
const MaxClientNameLength = 100

type Client struct {
	ID        int64
	Name      string `field:"name" validate:"required,max=100"`
	Email     string `field:"email" validate:"omitempty,email"`
	Phone     string
	Address   string
	CreatedAt time.Time

	// Related data (populated by repository)
	Invoices []*Invoice
}

var clientMessages = map[string]string{
	"name.required": "client name is required",
	"name.max":      "client name must be at most 100 characters",
	"email.email":   "email address is not valid",
}

// NewClient creates a new client with required fields
func NewClient(name string) *Client {
	return &Client{
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
}

// Validate returns a ValidationErrors if the client is invalid
func (c *Client) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	return checkStruct(c, clientMessages)
}

// NormalizePhone strips spaces, hyphens and periods so that differently
// formatted numbers compare equal.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.':
			return -1
		}
		return r
	}, s)
}
