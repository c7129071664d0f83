package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	OutboxStatusPending    = "PENDING"
	OutboxStatusProcessing = "PROCESSING"
	OutboxStatusSent       = "SENT"
	OutboxStatusFailed     = "FAILED"
	OutboxStatusDead       = "DEAD"
)

// Event types written to the outbox alongside the state change they describe.
const (
	EventSaleCreated          = "sale.created"
	EventSaleCancelled        = "sale.cancelled"
	EventDebtCreated          = "debt.created"
	EventDebtCancelled        = "debt.cancelled"
	EventPaymentRecorded      = "payment.recorded"
	EventPaymentCancelled     = "payment.cancelled"
	EventRefundRecorded       = "refund.recorded"
	EventRefundCancelled      = "refund.cancelled"
	EventPurchaseOrderCreated = "purchase_order.created"
	EventPayableCreated       = "payable.created"
	EventVendorPaymentMade    = "vendor_payment.recorded"
	EventSubCustomerClosed    = "sub_customer.closed"
	EventSubCustomerOpened    = "sub_customer.opened"
	EventStockChanged         = "product.stock_changed"
)

type OutboxEvent struct {
	ID            int64           `json:"id"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   uuid.UUID       `json:"aggregateId"`
	EventType     string          `json:"eventType"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	NextAttemptAt *time.Time      `json:"nextAttemptAt,omitempty"`
	LockedAt      *time.Time      `json:"lockedAt,omitempty"`
	LockedBy      *string         `json:"lockedBy,omitempty"`
	LastError     *string         `json:"lastError,omitempty"`
	PublishedAt   *time.Time      `json:"publishedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// LedgerEventPayload is the payload of every event that moves a customer balance.
type LedgerEventPayload struct {
	CustomerID    *uuid.UUID  `json:"customerId,omitempty"`
	SubCustomerID *uuid.UUID  `json:"subCustomerId,omitempty"`
	VendorID      *uuid.UUID  `json:"vendorId,omitempty"`
	Amount        string      `json:"amount,omitempty"`
	ProductIDs    []uuid.UUID `json:"productIds,omitempty"`
}

// PublishedEvent is the message pushed to Redis and websocket clients.
type PublishedEvent struct {
	ID            int64           `json:"id"`
	EventType     string          `json:"eventType"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   uuid.UUID       `json:"aggregateId"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"createdAt"`
}
