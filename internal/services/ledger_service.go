package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-backend/internal/cache"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
)

// RecordLister lists debts and payments of a query in any status.
type RecordLister interface {
	ListDebts(ctx context.Context, q models.DebtQuery) ([]*models.Debt, error)
	ListPayments(ctx context.Context, q models.DebtQuery) ([]*models.CustomerPayment, error)
}

// LedgerService is the single read path for balances. Every endpoint that
// shows totals goes through it.
type LedgerService struct {
	Calculator *ledger.Calculator
	Records    RecordLister
}

func NewLedgerService(src ledger.Source, records RecordLister) *LedgerService {
	return &LedgerService{
		Calculator: ledger.NewCalculator(src),
		Records:    records,
	}
}

var _ ledger.BalanceQuery = (*LedgerService)(nil)

// Balance returns the scope summary, served from Redis when cached.
func (s *LedgerService) Balance(ctx context.Context, scope ledger.Scope) (ledger.Summary, error) {
	var summary ledger.Summary
	if cache.GetJSON(ctx, scope.CacheKey(), &summary) {
		return summary, nil
	}
	summary, err := s.Calculator.Balance(ctx, scope)
	if err != nil {
		return ledger.Summary{}, err
	}
	cache.SetJSON(ctx, scope.CacheKey(), summary, cache.BalanceTTL)
	return summary, nil
}

// Summary builds the customer debt/payment view. The lists follow the
// query's filter, search and dates; the totals are always the full scope.
func (s *LedgerService) Summary(ctx context.Context, q models.DebtQuery) (*models.DebtSummaryResponse, error) {
	filter, err := normalizeFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	q.Search = strings.TrimSpace(q.Search)

	scope := ledger.Scope{CustomerID: q.CustomerID, SubCustomerID: q.SubCustomerID}
	l, err := s.Calculator.Load(ctx, scope)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, scope.CacheKey(), l.Summary, cache.BalanceTTL)

	resp := &models.DebtSummaryResponse{
		Debts:         []*models.Debt{},
		Payments:      []*models.CustomerPayment{},
		TotalDebt:     l.Summary.TotalDebt,
		TotalRefunded: l.Summary.TotalRefunded,
		TotalPaid:     l.Summary.TotalPaid,
		RemainingDebt: l.Summary.RemainingDebt,
		DebtCount:     l.Summary.DebtCount,
		PaymentCount:  l.Summary.PaymentCount,
	}

	var debts []*models.Debt
	if filter != models.DebtFilterPayments || q.Search != "" {
		debts, err = s.Records.ListDebts(ctx, q)
		if err != nil {
			return nil, err
		}
		applyDerived(debts, l)
	}
	if filter != models.DebtFilterPayments {
		resp.Debts = append(resp.Debts, debts...)
	}
	if filter != models.DebtFilterDebts {
		payments, err := s.Records.ListPayments(ctx, q)
		if err != nil {
			return nil, err
		}
		if q.Search != "" {
			payments = paymentsForDebts(payments, debts)
		}
		resp.Payments = append(resp.Payments, payments...)
	}
	return resp, nil
}

// FillDerived sets the paid/refunded/remaining fields of one debt.
func (s *LedgerService) FillDerived(ctx context.Context, debt *models.Debt) error {
	l, err := s.Calculator.Load(ctx, ledger.Scope{CustomerID: debt.CustomerID, SubCustomerID: debt.SubCustomerID})
	if err != nil {
		return err
	}
	applyDerived([]*models.Debt{debt}, l)
	return nil
}

// applyDerived copies allocation results from the loaded ledger. Debts
// outside it (cancelled) report zero.
func applyDerived(debts []*models.Debt, l *ledger.Ledger) {
	byID := make(map[uuid.UUID]*models.Debt, len(l.Debts))
	for _, d := range l.Debts {
		byID[d.ID] = d
	}
	for _, d := range debts {
		allocated, ok := byID[d.ID]
		if !ok {
			d.RefundedAmount = decimal.Zero
			d.PaidAmount = decimal.Zero
			d.RemainingAmount = decimal.Zero
			d.IsPaid = false
			continue
		}
		d.RefundedAmount = allocated.RefundedAmount
		d.PaidAmount = allocated.PaidAmount
		d.RemainingAmount = allocated.RemainingAmount
		d.IsPaid = allocated.IsPaid
	}
}

// paymentsForDebts keeps the payments linked to one of the debts or their sales.
func paymentsForDebts(payments []*models.CustomerPayment, debts []*models.Debt) []*models.CustomerPayment {
	debtIDs := make(map[uuid.UUID]bool, len(debts))
	saleIDs := make(map[uuid.UUID]bool, len(debts))
	for _, d := range debts {
		debtIDs[d.ID] = true
		if d.SaleID != nil {
			saleIDs[*d.SaleID] = true
		}
	}
	var kept []*models.CustomerPayment
	for _, p := range payments {
		if (p.DebtID != nil && debtIDs[*p.DebtID]) || (p.SaleID != nil && saleIDs[*p.SaleID]) {
			kept = append(kept, p)
		}
	}
	return kept
}

func normalizeFilter(filter string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", models.DebtFilterAll:
		return models.DebtFilterAll, nil
	case models.DebtFilterDebts:
		return models.DebtFilterDebts, nil
	case models.DebtFilterPayments:
		return models.DebtFilterPayments, nil
	default:
		return "", validationError("filter must be one of: all debts payments")
	}
}

func invalidateBalances(ctx context.Context, customerID uuid.UUID) {
	cache.InvalidateBalances(ctx, customerID.String())
}
