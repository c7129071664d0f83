package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DebtTypeSale       = "sale"
	DebtTypeManual     = "manual"
	DebtTypeAdjustment = "adjustment"

	DebtStatusActive    = "active"
	DebtStatusCancelled = "cancelled"
)

// Debt is an amount owed by a customer. The paid/refunded/remaining fields
// and IsPaid are derived by the ledger on read and never stored.
type Debt struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customerId"`
	SubCustomerID *uuid.UUID      `json:"subCustomerId,omitempty"`
	SaleID        *uuid.UUID      `json:"saleId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	RefundedAmount  decimal.Decimal `json:"refundedAmount"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	IsPaid          bool            `json:"isPaid"`

	Sale *Sale `json:"sale,omitempty"`
}

// CreateDebtRequest represents the request body for POST /api/debts/customer/{customerId}
type CreateDebtRequest struct {
	SubCustomerID *uuid.UUID      `json:"subCustomerId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description" validate:"max=500"`
	Type          string          `json:"type" validate:"omitempty,oneof=manual adjustment"`
}

// UpdateDebtRequest represents the request body for PATCH /api/debts/{id}
type UpdateDebtRequest struct {
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsPaid      *bool   `json:"isPaid,omitempty"`
}

const (
	PaymentStatusActive    = "active"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusRefunded  = "refunded"

	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodOnline   = "online"
)

type CustomerPayment struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customerId"`
	SubCustomerID *uuid.UUID      `json:"subCustomerId,omitempty"`
	DebtID        *uuid.UUID      `json:"debtId,omitempty"`
	SaleID        *uuid.UUID      `json:"saleId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Note          string          `json:"note"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// CreatePaymentRequest represents the request body for POST /api/payments
type CreatePaymentRequest struct {
	CustomerID    uuid.UUID       `json:"customerId" validate:"required"`
	SubCustomerID *uuid.UUID      `json:"subCustomerId,omitempty"`
	DebtID        *uuid.UUID      `json:"debtId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   *time.Time      `json:"paymentDate,omitempty"`
	Type          string          `json:"type" validate:"required,oneof=cash card transfer"`
	Note          string          `json:"note" validate:"max=500"`
}

const (
	RefundStatusActive    = "active"
	RefundStatusCancelled = "cancelled"
)

type Refund struct {
	ID            uuid.UUID       `json:"id"`
	DebtID        uuid.UUID       `json:"debtId"`
	CustomerID    uuid.UUID       `json:"customerId"`
	SubCustomerID *uuid.UUID      `json:"subCustomerId,omitempty"`
	SaleItemID    *uuid.UUID      `json:"saleItemId,omitempty"`
	ProductID     *uuid.UUID      `json:"productId,omitempty"`
	ProductName   string          `json:"productName"`
	Barcode       string          `json:"barcode"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	Restock       bool            `json:"restock"`
	Status        string          `json:"status"`
	Reason        string          `json:"reason"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// CreateRefundRequest represents the request body for POST /api/debts/{id}/refunds
type CreateRefundRequest struct {
	SaleItemID *uuid.UUID      `json:"saleItemId,omitempty"`
	Quantity   int             `json:"quantity" validate:"min=0"`
	Amount     decimal.Decimal `json:"amount"`
	Restock    bool            `json:"restock"`
	Reason     string          `json:"reason" validate:"max=500"`
}

// Summary list filters for GET /api/debts/customer/{customerId}
const (
	DebtFilterAll      = "all"
	DebtFilterDebts    = "debts"
	DebtFilterPayments = "payments"
)

type DebtQuery struct {
	CustomerID    uuid.UUID
	SubCustomerID *uuid.UUID
	Filter        string
	Search        string
	From          *time.Time
	To            *time.Time
}

// DebtSummaryResponse is the customer debt/payment summary. Totals always
// cover the whole scope; the lists honour the filter and search.
type DebtSummaryResponse struct {
	Debts         []*Debt            `json:"debts"`
	Payments      []*CustomerPayment `json:"payments"`
	TotalDebt     decimal.Decimal    `json:"totalDebt"`
	TotalRefunded decimal.Decimal    `json:"totalRefunded"`
	TotalPaid     decimal.Decimal    `json:"totalPaid"`
	RemainingDebt decimal.Decimal    `json:"remainingDebt"`
	DebtCount     int                `json:"debtCount"`
	PaymentCount  int                `json:"paymentCount"`
}
