package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
)

// fakeLedger serves both ledger.Source and RecordLister from memory.
type fakeLedger struct {
	debts    []*models.Debt
	payments []*models.CustomerPayment
	refunds  []*models.Refund
	err      error

	lastQuery models.DebtQuery
}

func (f *fakeLedger) ActiveDebts(ctx context.Context, scope ledger.Scope) ([]*models.Debt, error) {
	if f.err != nil {
		return nil, f.err
	}
	// hand out copies so allocation never writes into the listed records
	out := make([]*models.Debt, 0, len(f.debts))
	for _, d := range f.debts {
		c := *d
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeLedger) ActivePayments(ctx context.Context, scope ledger.Scope) ([]*models.CustomerPayment, error) {
	return f.payments, f.err
}

func (f *fakeLedger) ActiveRefunds(ctx context.Context, scope ledger.Scope) ([]*models.Refund, error) {
	return f.refunds, f.err
}

func (f *fakeLedger) ListDebts(ctx context.Context, q models.DebtQuery) ([]*models.Debt, error) {
	f.lastQuery = q
	out := make([]*models.Debt, 0, len(f.debts))
	for _, d := range f.debts {
		c := *d
		out = append(out, &c)
	}
	return out, f.err
}

func (f *fakeLedger) ListPayments(ctx context.Context, q models.DebtQuery) ([]*models.CustomerPayment, error) {
	f.lastQuery = q
	return f.payments, f.err
}

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newDebt(customerID uuid.UUID, amount string, offset int) *models.Debt {
	return &models.Debt{
		ID:         uuid.New(),
		CustomerID: customerID,
		Amount:     money(amount),
		Type:       models.DebtTypeManual,
		Status:     models.DebtStatusActive,
		CreatedAt:  baseTime.Add(time.Duration(offset) * time.Hour),
	}
}

func newPayment(customerID uuid.UUID, amount string, debtID *uuid.UUID) *models.CustomerPayment {
	return &models.CustomerPayment{
		ID:          uuid.New(),
		CustomerID:  customerID,
		DebtID:      debtID,
		Amount:      money(amount),
		PaymentDate: baseTime,
		Type:        models.PaymentMethodCash,
		Status:      models.PaymentStatusActive,
	}
}
