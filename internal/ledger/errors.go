package ledger

import "errors"

var (
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrPaidExceedsTotal       = errors.New("paid amount exceeds sale total")
	ErrCustomerRequired       = errors.New("a customer is required for an unpaid balance")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrProductNotFound        = errors.New("product not found")
	ErrProductInactive        = errors.New("product is not available for sale")
	ErrRefundExceedsDebt      = errors.New("refund total would exceed the debt amount")
	ErrRefundQuantityExceeded = errors.New("refund quantity exceeds the quantity sold")
	ErrDebtNotActive          = errors.New("debt is not active")
	ErrOutstandingBalance     = errors.New("account has an outstanding balance")
	ErrAccountClosed          = errors.New("sub-customer account is closed")
	ErrSubCustomerMismatch    = errors.New("sub-customer does not belong to this customer")
	ErrPaidFlagMismatch       = errors.New("isPaid is derived from payments and refunds")
)
