package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pos-backend/internal/models"
)

func TestCanClose(t *testing.T) {
	assert.NoError(t, CanClose(Summary{RemainingDebt: decimal.Zero}))

	err := CanClose(Summary{RemainingDebt: dec("12.5")})
	assert.ErrorIs(t, err, ErrOutstandingBalance)
	assert.Contains(t, err.Error(), "12.5")
}

func TestEnsureWritable(t *testing.T) {
	customer := uuid.New()
	open := &models.SubCustomer{ID: uuid.New(), CustomerID: customer, Status: models.SubCustomerActive}
	closed := &models.SubCustomer{ID: uuid.New(), CustomerID: customer, Status: models.SubCustomerInactive}
	deleted := &models.SubCustomer{ID: uuid.New(), CustomerID: customer, Status: models.SubCustomerDeleted}

	assert.NoError(t, EnsureWritable(nil, customer))
	assert.NoError(t, EnsureWritable(open, customer))
	assert.ErrorIs(t, EnsureWritable(closed, customer), ErrAccountClosed)
	assert.ErrorIs(t, EnsureWritable(deleted, customer), ErrAccountClosed)
	assert.ErrorIs(t, EnsureWritable(open, uuid.New()), ErrSubCustomerMismatch)
}

func TestValidateRefund(t *testing.T) {
	customer := uuid.New()
	d := debt(customer, nil, "100", t0)
	previous := refund(d, "60")
	cancelled := refund(d, "90")
	cancelled.Status = models.RefundStatusCancelled
	otherDebt := debt(customer, nil, "100", t0)
	unrelated := refund(otherDebt, "95")
	existing := []*models.Refund{previous, cancelled, unrelated}

	tests := []struct {
		name   string
		amount string
		want   error
	}{
		{"fits", "30", nil},
		{"exactly the rest", "40", nil},
		{"over the debt", "40.01", ErrRefundExceedsDebt},
		{"zero", "0", ErrInvalidAmount},
		{"negative", "-5", ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRefund(d, existing, dec(tt.amount))
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	d.Status = models.DebtStatusCancelled
	assert.ErrorIs(t, ValidateRefund(d, nil, dec("1")), ErrDebtNotActive)
}

func TestValidateRefundQuantity(t *testing.T) {
	item := &models.SaleItem{Quantity: 3}
	assert.NoError(t, ValidateRefundQuantity(item, 0, 3))
	assert.NoError(t, ValidateRefundQuantity(item, 2, 1))
	assert.ErrorIs(t, ValidateRefundQuantity(item, 2, 2), ErrRefundQuantityExceeded)
	assert.ErrorIs(t, ValidateRefundQuantity(item, 0, 0), ErrRefundQuantityExceeded)
}

func TestCheckPaidFlag(t *testing.T) {
	d := &models.Debt{IsPaid: false, RemainingAmount: dec("60")}
	assert.NoError(t, CheckPaidFlag(d, false))

	err := CheckPaidFlag(d, true)
	assert.ErrorIs(t, err, ErrPaidFlagMismatch)
	assert.Contains(t, err.Error(), "60 remaining")
}

func TestCaptureKeepsDebtLink(t *testing.T) {
	customer, sub, otherSub := uuid.New(), uuid.New(), uuid.New()
	debtOn := func(customerID uuid.UUID, subID *uuid.UUID, status string) *models.Debt {
		return &models.Debt{ID: uuid.New(), CustomerID: customerID, SubCustomerID: subID, Status: status}
	}

	tests := []struct {
		name  string
		debt  *models.Debt
		scope Scope
		want  bool
	}{
		{"active debt in scope", debtOn(customer, &sub, models.DebtStatusActive), Scope{CustomerID: customer, SubCustomerID: &sub}, true},
		{"customer-wide payment", debtOn(customer, &sub, models.DebtStatusActive), Scope{CustomerID: customer}, true},
		{"missing debt", nil, Scope{CustomerID: customer}, false},
		{"cancelled debt", debtOn(customer, &sub, models.DebtStatusCancelled), Scope{CustomerID: customer, SubCustomerID: &sub}, false},
		{"other sub-customer", debtOn(customer, &otherSub, models.DebtStatusActive), Scope{CustomerID: customer, SubCustomerID: &sub}, false},
		{"other customer", debtOn(uuid.New(), nil, models.DebtStatusActive), Scope{CustomerID: customer}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CaptureKeepsDebtLink(tt.debt, tt.scope))
		})
	}
}
