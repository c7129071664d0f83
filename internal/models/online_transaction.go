package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OnlineTxStatusCreated = "created"
	OnlineTxStatusPaid    = "paid"
	OnlineTxStatusFailed  = "failed"
)

// OnlineTransaction tracks a Razorpay order raised against a customer's debt.
type OnlineTransaction struct {
	ID                uuid.UUID       `json:"id"`
	CustomerID        uuid.UUID       `json:"customerId"`
	SubCustomerID     *uuid.UUID      `json:"subCustomerId,omitempty"`
	DebtID            *uuid.UUID      `json:"debtId,omitempty"`
	RazorpayOrderID   string          `json:"razorpayOrderId"`
	RazorpayPaymentID string          `json:"razorpayPaymentId"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	FailureReason     string          `json:"failureReason,omitempty"`
	CustomerPaymentID *uuid.UUID      `json:"customerPaymentId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// CreateOnlineOrderRequest represents the request body for POST /api/online-payments/orders
type CreateOnlineOrderRequest struct {
	CustomerID    uuid.UUID       `json:"customerId" validate:"required"`
	SubCustomerID *uuid.UUID      `json:"subCustomerId,omitempty"`
	DebtID        *uuid.UUID      `json:"debtId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

type CreateOnlineOrderResponse struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	OrderID       string          `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	AmountPaise   int64           `json:"amountPaise"`
	Currency      string          `json:"currency"`
	KeyID         string          `json:"keyId"`
}

type VerifyOnlinePaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// RazorpayWebhookEvent is the subset of the webhook body we read.
type RazorpayWebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Amount           int64  `json:"amount"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
