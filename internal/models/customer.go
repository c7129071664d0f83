package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerRequest represents the request body for creating or updating a customer
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address"`
	Color   string `json:"color" validate:"max=32"`
}

// Sub-customer account states. Inactive means the account is closed.
const (
	SubCustomerActive   = "active"
	SubCustomerInactive = "inactive"
	SubCustomerDeleted  = "deleted"
)

type SubCustomer struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  uuid.UUID  `json:"customerId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsOpen reports whether new debts, payments and sales may target the account.
func (s *SubCustomer) IsOpen() bool {
	return s.Status == SubCustomerActive
}

type SubCustomerRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
}
