package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-backend/internal/models"
)

// CanClose rejects closing an account that still owes money.
func CanClose(s Summary) error {
	if s.RemainingDebt.IsPositive() {
		return fmt.Errorf("%w: %s remaining", ErrOutstandingBalance, s.RemainingDebt.String())
	}
	return nil
}

// EnsureWritable checks that new ledger records may target the sub-customer.
func EnsureWritable(sub *models.SubCustomer, customerID uuid.UUID) error {
	if sub == nil {
		return nil
	}
	if sub.CustomerID != customerID {
		return ErrSubCustomerMismatch
	}
	if !sub.IsOpen() {
		return ErrAccountClosed
	}
	return nil
}

// ValidateRefund checks that a new refund keeps the cumulative active
// refunds of the debt within its amount.
func ValidateRefund(debt *models.Debt, existing []*models.Refund, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if debt.Status != models.DebtStatusActive {
		return ErrDebtNotActive
	}
	refunded := decimal.Zero
	for _, r := range existing {
		if r.DebtID == debt.ID && r.Status == models.RefundStatusActive {
			refunded = refunded.Add(r.Amount)
		}
	}
	if refunded.Add(amount).GreaterThan(debt.Amount) {
		return fmt.Errorf("%w: %s already refunded of %s", ErrRefundExceedsDebt, refunded.String(), debt.Amount.String())
	}
	return nil
}

// ValidateRefundQuantity checks a line-item refund against the sold quantity.
func ValidateRefundQuantity(item *models.SaleItem, alreadyRefunded, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrRefundQuantityExceeded)
	}
	if alreadyRefunded+quantity > item.Quantity {
		return fmt.Errorf("%w: %d of %d already refunded", ErrRefundQuantityExceeded, alreadyRefunded, item.Quantity)
	}
	return nil
}

// CheckPaidFlag compares a requested isPaid against the derived value.
func CheckPaidFlag(debt *models.Debt, requested bool) error {
	if debt.IsPaid == requested {
		return nil
	}
	return fmt.Errorf("%w: %s remaining", ErrPaidFlagMismatch, debt.RemainingAmount.String())
}

// CaptureKeepsDebtLink reports whether a captured online payment can stay
// linked to debt. Captured money is always recorded; a debt that is gone,
// cancelled or outside the payer's scope only loses the link.
func CaptureKeepsDebtLink(debt *models.Debt, scope Scope) bool {
	return debt != nil &&
		debt.Status == models.DebtStatusActive &&
		debt.CustomerID == scope.CustomerID &&
		scope.Matches(debt.SubCustomerID)
}
