package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PurchaseStatusReceived  = "received"
	PurchaseStatusCancelled = "cancelled"
)

type PurchaseOrder struct {
	ID          uuid.UUID           `json:"id"`
	VendorID    uuid.UUID           `json:"vendorId"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
	Status      string              `json:"status"`
	Note        string              `json:"note"`
	CreatedBy   *uuid.UUID          `json:"createdBy,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	Items       []PurchaseOrderItem `json:"items,omitempty"`
}

type PurchaseOrderItem struct {
	ID              uuid.UUID       `json:"id"`
	PurchaseOrderID uuid.UUID       `json:"purchaseOrderId"`
	ProductID       uuid.UUID       `json:"productId"`
	Quantity        int             `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	Total           decimal.Decimal `json:"total"`
}

type PurchaseLine struct {
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// CreatePurchaseOrderRequest represents the request body for POST /api/purchase-orders
type CreatePurchaseOrderRequest struct {
	VendorID    uuid.UUID       `json:"vendorId" validate:"required"`
	Items       []PurchaseLine  `json:"items" validate:"required,min=1,dive"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
	PaymentType string          `json:"paymentType" validate:"omitempty,oneof=cash card transfer"`
	Note        string          `json:"note" validate:"max=500"`
}

type PurchaseOrderResult struct {
	Order   *PurchaseOrder `json:"order"`
	MyDebt  *MyDebt        `json:"myDebt,omitempty"`
	Payment *MyPayment     `json:"payment,omitempty"`
	Replay  bool           `json:"replay,omitempty"`
}

// MyDebt is a payable owed to a vendor.
type MyDebt struct {
	ID              uuid.UUID       `json:"id"`
	VendorID        uuid.UUID       `json:"vendorId"`
	PurchaseOrderID *uuid.UUID      `json:"purchaseOrderId,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	PaidAmount      decimal.Decimal `json:"paidAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	IsPaid          bool            `json:"isPaid"`
}

// CreateMyDebtRequest represents the request body for POST /api/my-debts
type CreateMyDebtRequest struct {
	VendorID        uuid.UUID       `json:"vendorId" validate:"required"`
	PurchaseOrderID *uuid.UUID      `json:"purchaseOrderId,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description" validate:"max=500"`
}

type UpdateMyDebtRequest struct {
	Description string `json:"description" validate:"max=500"`
}

type MyPayment struct {
	ID          uuid.UUID       `json:"id"`
	VendorID    uuid.UUID       `json:"vendorId"`
	MyDebtID    *uuid.UUID      `json:"myDebtId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"paymentDate"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Note        string          `json:"note"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CreateMyPaymentRequest represents the request body for POST /api/my-payments
type CreateMyPaymentRequest struct {
	VendorID    uuid.UUID       `json:"vendorId" validate:"required"`
	MyDebtID    *uuid.UUID      `json:"myDebtId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
	Type        string          `json:"type" validate:"required,oneof=cash card transfer"`
	Note        string          `json:"note" validate:"max=500"`
}

// PayableSummary is the vendor-side balance.
type PayableSummary struct {
	VendorID      uuid.UUID       `json:"vendorId"`
	TotalDebt     decimal.Decimal `json:"totalDebt"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	RemainingDebt decimal.Decimal `json:"remainingDebt"`
	DebtCount     int             `json:"debtCount"`
	PaymentCount  int             `json:"paymentCount"`
}
