package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/models"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}

func debt(customer uuid.UUID, sub *uuid.UUID, amount string, at time.Time) *models.Debt {
	return &models.Debt{
		ID:            uuid.New(),
		CustomerID:    customer,
		SubCustomerID: sub,
		Amount:        dec(amount),
		Type:          models.DebtTypeManual,
		Status:        models.DebtStatusActive,
		CreatedAt:     at,
	}
}

func payment(customer uuid.UUID, sub *uuid.UUID, amount string) *models.CustomerPayment {
	return &models.CustomerPayment{
		ID:            uuid.New(),
		CustomerID:    customer,
		SubCustomerID: sub,
		Amount:        dec(amount),
		Type:          models.PaymentMethodCash,
		Status:        models.PaymentStatusActive,
	}
}

func refund(d *models.Debt, amount string) *models.Refund {
	return &models.Refund{
		ID:            uuid.New(),
		DebtID:        d.ID,
		CustomerID:    d.CustomerID,
		SubCustomerID: d.SubCustomerID,
		Amount:        dec(amount),
		Status:        models.RefundStatusActive,
	}
}

type memorySource struct {
	debts    []*models.Debt
	payments []*models.CustomerPayment
	refunds  []*models.Refund
	err      error
}

func (m *memorySource) ActiveDebts(ctx context.Context, scope Scope) ([]*models.Debt, error) {
	return m.debts, m.err
}

func (m *memorySource) ActivePayments(ctx context.Context, scope Scope) ([]*models.CustomerPayment, error) {
	return m.payments, nil
}

func (m *memorySource) ActiveRefunds(ctx context.Context, scope Scope) ([]*models.Refund, error) {
	return m.refunds, nil
}

func TestBalanceDebtAndPayment(t *testing.T) {
	customer := uuid.New()
	src := &memorySource{
		debts:    []*models.Debt{debt(customer, nil, "100", t0)},
		payments: []*models.CustomerPayment{payment(customer, nil, "40")},
	}

	s, err := NewCalculator(src).Balance(context.Background(), Scope{CustomerID: customer})
	require.NoError(t, err)

	assert.Equal(t, "100", s.TotalDebt.String())
	assert.Equal(t, "40", s.TotalPaid.String())
	assert.Equal(t, "60", s.RemainingDebt.String())
	assert.Equal(t, 1, s.DebtCount)
	assert.Equal(t, 1, s.PaymentCount)
}

func TestBalanceRefundReducesRemaining(t *testing.T) {
	customer := uuid.New()
	d := debt(customer, nil, "100", t0)
	src := &memorySource{
		debts:   []*models.Debt{d},
		refunds: []*models.Refund{refund(d, "30")},
	}

	l, err := NewCalculator(src).Load(context.Background(), Scope{CustomerID: customer})
	require.NoError(t, err)

	assert.Equal(t, "100", l.Summary.TotalDebt.String())
	assert.Equal(t, "30", l.Summary.TotalRefunded.String())
	assert.Equal(t, "0", l.Summary.TotalPaid.String())
	assert.Equal(t, "70", l.Summary.RemainingDebt.String())
	assert.Equal(t, "70", l.Debts[0].RemainingAmount.String())
	assert.Equal(t, "30", l.Debts[0].RefundedAmount.String())
	assert.False(t, l.Debts[0].IsPaid)
}

func TestBalanceClampsAtZero(t *testing.T) {
	customer := uuid.New()
	src := &memorySource{
		debts:    []*models.Debt{debt(customer, nil, "50", t0)},
		payments: []*models.CustomerPayment{payment(customer, nil, "80")},
	}

	s, err := NewCalculator(src).Balance(context.Background(), Scope{CustomerID: customer})
	require.NoError(t, err)
	assert.True(t, s.RemainingDebt.IsZero())
	assert.Equal(t, "80", s.TotalPaid.String())
}

func TestBalanceIgnoresInactiveRecords(t *testing.T) {
	customer := uuid.New()
	cancelledDebt := debt(customer, nil, "500", t0)
	cancelledDebt.Status = models.DebtStatusCancelled
	cancelledPayment := payment(customer, nil, "20")
	cancelledPayment.Status = models.PaymentStatusCancelled
	refundedPayment := payment(customer, nil, "15")
	refundedPayment.Status = models.PaymentStatusRefunded
	active := debt(customer, nil, "100", t0)
	cancelledRefund := refund(active, "50")
	cancelledRefund.Status = models.RefundStatusCancelled

	src := &memorySource{
		debts:    []*models.Debt{cancelledDebt, active},
		payments: []*models.CustomerPayment{cancelledPayment, refundedPayment, payment(customer, nil, "10")},
		refunds:  []*models.Refund{cancelledRefund, refund(cancelledDebt, "100")},
	}

	s, err := NewCalculator(src).Balance(context.Background(), Scope{CustomerID: customer})
	require.NoError(t, err)
	assert.Equal(t, "100", s.TotalDebt.String())
	assert.Equal(t, "0", s.TotalRefunded.String())
	assert.Equal(t, "10", s.TotalPaid.String())
	assert.Equal(t, "90", s.RemainingDebt.String())
	assert.Equal(t, 0, s.RefundCount)
}

func TestBalanceSubCustomerScope(t *testing.T) {
	customer := uuid.New()
	shop := uuid.New()
	home := uuid.New()

	src := &memorySource{
		debts: []*models.Debt{
			debt(customer, ptr(shop), "100", t0),
			debt(customer, ptr(home), "70", t0),
			debt(customer, nil, "30", t0),
		},
		payments: []*models.CustomerPayment{
			payment(customer, ptr(shop), "25"),
			payment(customer, nil, "5"),
		},
	}
	calc := NewCalculator(src)

	tests := []struct {
		name      string
		scope     Scope
		debt      string
		paid      string
		remaining string
	}{
		{"whole customer", Scope{CustomerID: customer}, "200", "30", "170"},
		{"shop account", Scope{CustomerID: customer, SubCustomerID: ptr(shop)}, "100", "25", "75"},
		{"home account", Scope{CustomerID: customer, SubCustomerID: ptr(home)}, "70", "0", "70"},
		{"other customer", Scope{CustomerID: uuid.New()}, "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := calc.Balance(context.Background(), tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.debt, s.TotalDebt.String())
			assert.Equal(t, tt.paid, s.TotalPaid.String())
			assert.Equal(t, tt.remaining, s.RemainingDebt.String())
		})
	}
}

func TestBalanceDecimalSafe(t *testing.T) {
	customer := uuid.New()
	src := &memorySource{
		debts: []*models.Debt{
			debt(customer, nil, "0.10", t0),
			debt(customer, nil, "0.20", t0.Add(time.Minute)),
		},
		payments: []*models.CustomerPayment{payment(customer, nil, "0.30")},
	}
	s, err := NewCalculator(src).Balance(context.Background(), Scope{CustomerID: customer})
	require.NoError(t, err)
	assert.True(t, s.RemainingDebt.IsZero())
	assert.Equal(t, "0.3", s.TotalDebt.String())
}

func TestBalanceSourceError(t *testing.T) {
	src := &memorySource{err: errors.New("connection reset")}
	_, err := NewCalculator(src).Balance(context.Background(), Scope{CustomerID: uuid.New()})
	assert.EqualError(t, err, "connection reset")
}

func TestAllocateLinkedThenFIFO(t *testing.T) {
	customer := uuid.New()
	older := debt(customer, nil, "50", t0)
	newer := debt(customer, nil, "80", t0.Add(time.Hour))
	newest := debt(customer, nil, "20", t0.Add(2*time.Hour))

	linked := payment(customer, nil, "90")
	linked.DebtID = ptr(newer.ID)
	unlinked := payment(customer, nil, "30")

	Allocate([]*models.Debt{newest, newer, older}, []*models.CustomerPayment{linked, unlinked}, nil)

	// newer takes 80 of the linked 90; the 10 excess and the 30 unlinked go FIFO.
	assert.True(t, newer.IsPaid)
	assert.Equal(t, "80", newer.PaidAmount.String())
	assert.False(t, older.IsPaid)
	assert.Equal(t, "40", older.PaidAmount.String())
	assert.Equal(t, "10", older.RemainingAmount.String())
	assert.False(t, newest.IsPaid)
	assert.Equal(t, "20", newest.RemainingAmount.String())
}

func TestAllocateFullyRefundedDebtIsSettled(t *testing.T) {
	customer := uuid.New()
	d := debt(customer, nil, "40", t0)
	Allocate([]*models.Debt{d}, nil, []*models.Refund{refund(d, "40")})
	assert.True(t, d.IsPaid)
	assert.True(t, d.RemainingAmount.IsZero())
}

func TestScopeCacheKey(t *testing.T) {
	customer := uuid.MustParse("8a0c4f5e-8f55-4bd4-a5e6-3f5f9b0d1a11")
	sub := uuid.MustParse("0e9bb4f2-3f4a-4b8c-9a57-1c9c3d4e5f60")

	assert.Equal(t, "balance:8a0c4f5e-8f55-4bd4-a5e6-3f5f9b0d1a11:all", Scope{CustomerID: customer}.CacheKey())
	assert.Equal(t, "balance:8a0c4f5e-8f55-4bd4-a5e6-3f5f9b0d1a11:0e9bb4f2-3f4a-4b8c-9a57-1c9c3d4e5f60",
		Scope{CustomerID: customer, SubCustomerID: &sub}.CacheKey())
}

func TestBuildAllocatesPerAccount(t *testing.T) {
	customer := uuid.New()
	shop := uuid.New()

	own := debt(customer, nil, "50", t0)
	shopDebt := debt(customer, &shop, "50", t0.Add(-time.Hour))
	ownPayment := payment(customer, nil, "50")

	l := Build(Scope{CustomerID: customer},
		[]*models.Debt{own, shopDebt}, []*models.CustomerPayment{ownPayment}, nil)

	// the older sub-customer debt is not settled by the customer's own payment
	assert.True(t, own.IsPaid)
	assert.False(t, shopDebt.IsPaid)
	assert.Equal(t, "50", shopDebt.RemainingAmount.String())
	assert.Equal(t, "50", l.Summary.RemainingDebt.String())
}
