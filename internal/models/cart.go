package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the server-side mirror of a terminal's cart, one per user.
type Cart struct {
	UserID        uuid.UUID       `json:"userId"`
	CustomerID    *uuid.UUID      `json:"customerId,omitempty"`
	SubCustomerID *uuid.UUID      `json:"subCustomerId,omitempty"`
	Items         []CartItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type CartItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Stock     int             `json:"stock"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type CartItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// SaveCartRequest replaces the whole cart.
type SaveCartRequest struct {
	CustomerID    *uuid.UUID        `json:"customerId,omitempty"`
	SubCustomerID *uuid.UUID        `json:"subCustomerId,omitempty"`
	Items         []CartItemRequest `json:"items" validate:"dive"`
}

type CartCheckoutRequest struct {
	PaymentType string          `json:"paymentType" validate:"required,oneof=cash card credit"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
	Note        string          `json:"note" validate:"max=500"`
}
