package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentTypeCash   = "cash"
	PaymentTypeCard   = "card"
	PaymentTypeCredit = "credit"

	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

type Sale struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    *uuid.UUID      `json:"customerId,omitempty"`
	SubCustomerID *uuid.UUID      `json:"subCustomerId,omitempty"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	PaymentType   string          `json:"paymentType"`
	Status        string          `json:"status"`
	Note          string          `json:"note"`
	CreatedBy     *uuid.UUID      `json:"createdBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
	Items         []SaleItem      `json:"items,omitempty"`
}

type SaleItem struct {
	ID        uuid.UUID       `json:"id"`
	SaleID    uuid.UUID       `json:"saleId"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

// CheckoutLine identifies a product by id or barcode.
type CheckoutLine struct {
	ProductID *uuid.UUID `json:"productId,omitempty"`
	Barcode   string     `json:"barcode,omitempty" validate:"required_without=ProductID,max=64"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

// CheckoutRequest represents the request body for POST /api/sales
type CheckoutRequest struct {
	Items         []CheckoutLine  `json:"items" validate:"required,min=1,dive"`
	CustomerID    *uuid.UUID      `json:"customerId,omitempty"`
	SubCustomerID *uuid.UUID      `json:"subCustomerId,omitempty"`
	PaymentType   string          `json:"paymentType" validate:"required,oneof=cash card credit"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Note          string          `json:"note" validate:"max=500"`
}

// CheckoutResult is the response of a checkout; Debt and Payment are set
// only when the sale created them.
type CheckoutResult struct {
	Sale    *Sale            `json:"sale"`
	Debt    *Debt            `json:"debt,omitempty"`
	Payment *CustomerPayment `json:"payment,omitempty"`
	Replay  bool             `json:"replay,omitempty"`
}

// SaleFilter narrows GET /api/sales
type SaleFilter struct {
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Status     string
	Limit      int
	Offset     int
}
