package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
)

func TestLedgerServiceSummary(t *testing.T) {
	customerID := uuid.New()
	open := newDebt(customerID, "100", 0)
	cancelled := newDebt(customerID, "50", 1)
	cancelled.Status = models.DebtStatusCancelled
	payment := newPayment(customerID, "40", nil)

	src := &fakeLedger{
		debts:    []*models.Debt{open, cancelled},
		payments: []*models.CustomerPayment{payment},
	}
	svc := NewLedgerService(src, src)

	tests := []struct {
		name         string
		filter       string
		wantDebts    int
		wantPayments int
	}{
		{"default is all", "", 2, 1},
		{"all", "all", 2, 1},
		{"debts only", "debts", 2, 0},
		{"payments only", "PAYMENTS", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Summary(context.Background(), models.DebtQuery{CustomerID: customerID, Filter: tt.filter})
			require.NoError(t, err)

			assert.Len(t, resp.Debts, tt.wantDebts)
			assert.Len(t, resp.Payments, tt.wantPayments)
			assert.NotNil(t, resp.Debts)
			assert.NotNil(t, resp.Payments)

			// totals never depend on the filter
			assert.Equal(t, "100", resp.TotalDebt.String())
			assert.Equal(t, "40", resp.TotalPaid.String())
			assert.Equal(t, "0", resp.TotalRefunded.String())
			assert.Equal(t, "60", resp.RemainingDebt.String())
			assert.Equal(t, 1, resp.DebtCount)
			assert.Equal(t, 1, resp.PaymentCount)
		})
	}
}

func TestLedgerServiceSummaryDerivedFields(t *testing.T) {
	customerID := uuid.New()
	open := newDebt(customerID, "100", 0)
	cancelled := newDebt(customerID, "50", 1)
	cancelled.Status = models.DebtStatusCancelled

	src := &fakeLedger{
		debts:    []*models.Debt{open, cancelled},
		payments: []*models.CustomerPayment{newPayment(customerID, "40", nil)},
		refunds: []*models.Refund{{
			ID: uuid.New(), DebtID: open.ID, CustomerID: customerID,
			Amount: money("30"), Status: models.RefundStatusActive,
		}},
	}
	svc := NewLedgerService(src, src)

	resp, err := svc.Summary(context.Background(), models.DebtQuery{CustomerID: customerID})
	require.NoError(t, err)
	require.Len(t, resp.Debts, 2)

	byID := map[uuid.UUID]*models.Debt{}
	for _, d := range resp.Debts {
		byID[d.ID] = d
	}
	got := byID[open.ID]
	assert.Equal(t, "30", got.RefundedAmount.String())
	assert.Equal(t, "40", got.PaidAmount.String())
	assert.Equal(t, "30", got.RemainingAmount.String())
	assert.False(t, got.IsPaid)

	gone := byID[cancelled.ID]
	assert.True(t, gone.RemainingAmount.IsZero())
	assert.True(t, gone.PaidAmount.IsZero())

	assert.Equal(t, "30", resp.RemainingDebt.String())
}

func TestLedgerServiceSummaryErrors(t *testing.T) {
	src := &fakeLedger{}
	svc := NewLedgerService(src, src)

	_, err := svc.Summary(context.Background(), models.DebtQuery{CustomerID: uuid.New(), Filter: "bogus"})
	assert.ErrorIs(t, err, ErrValidation)

	boom := errors.New("connection reset")
	src.err = boom
	_, err = svc.Summary(context.Background(), models.DebtQuery{CustomerID: uuid.New()})
	assert.ErrorIs(t, err, boom)
}

func TestLedgerServiceBalanceAndFill(t *testing.T) {
	customerID := uuid.New()
	debt := newDebt(customerID, "100", 0)
	src := &fakeLedger{
		debts:    []*models.Debt{debt},
		payments: []*models.CustomerPayment{newPayment(customerID, "100", &debt.ID)},
	}
	svc := NewLedgerService(src, src)

	summary, err := svc.Balance(context.Background(), ledger.Scope{CustomerID: customerID})
	require.NoError(t, err)
	assert.True(t, summary.RemainingDebt.IsZero())

	target := *debt
	require.NoError(t, svc.FillDerived(context.Background(), &target))
	assert.True(t, target.IsPaid)
	assert.Equal(t, "100", target.PaidAmount.String())
}

func TestPaymentsForDebts(t *testing.T) {
	customerID := uuid.New()
	saleID := uuid.New()
	debt := newDebt(customerID, "10", 0)
	debt.SaleID = &saleID

	byDebt := newPayment(customerID, "1", &debt.ID)
	bySale := newPayment(customerID, "2", nil)
	bySale.SaleID = &saleID
	unrelated := newPayment(customerID, "3", nil)

	kept := paymentsForDebts([]*models.CustomerPayment{byDebt, bySale, unrelated}, []*models.Debt{debt})
	assert.Equal(t, []*models.CustomerPayment{byDebt, bySale}, kept)
}
