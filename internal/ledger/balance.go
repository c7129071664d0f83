// Package ledger holds the receivable/payable arithmetic shared by every
// endpoint: balances, payment allocation, refund limits and account gating.
package ledger

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-backend/internal/models"
)

// Scope selects the records of one customer, optionally narrowed to a
// single sub-customer account.
type Scope struct {
	CustomerID    uuid.UUID
	SubCustomerID *uuid.UUID
}

// Matches reports whether a record with the given sub-customer falls in scope.
func (s Scope) Matches(subCustomerID *uuid.UUID) bool {
	if s.SubCustomerID == nil {
		return true
	}
	return subCustomerID != nil && *subCustomerID == *s.SubCustomerID
}

// CacheKey is the Redis key of the cached summary for this scope.
func (s Scope) CacheKey() string {
	sub := "all"
	if s.SubCustomerID != nil {
		sub = s.SubCustomerID.String()
	}
	return "balance:" + s.CustomerID.String() + ":" + sub
}

type Summary struct {
	TotalDebt     decimal.Decimal `json:"totalDebt"`
	TotalRefunded decimal.Decimal `json:"totalRefunded"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	RemainingDebt decimal.Decimal `json:"remainingDebt"`
	DebtCount     int             `json:"debtCount"`
	PaymentCount  int             `json:"paymentCount"`
	RefundCount   int             `json:"refundCount"`
}

// Source loads the active records of a scope. Implementations may return a
// superset; the Calculator filters again.
type Source interface {
	ActiveDebts(ctx context.Context, scope Scope) ([]*models.Debt, error)
	ActivePayments(ctx context.Context, scope Scope) ([]*models.CustomerPayment, error)
	ActiveRefunds(ctx context.Context, scope Scope) ([]*models.Refund, error)
}

// BalanceQuery is the single balance capability every caller depends on.
type BalanceQuery interface {
	Balance(ctx context.Context, scope Scope) (Summary, error)
}

// Ledger is a loaded scope with allocation applied to its debts.
type Ledger struct {
	Scope    Scope
	Debts    []*models.Debt
	Payments []*models.CustomerPayment
	Refunds  []*models.Refund
	Summary  Summary
}

type Calculator struct {
	Source Source
}

func NewCalculator(src Source) *Calculator {
	return &Calculator{Source: src}
}

func (c *Calculator) Balance(ctx context.Context, scope Scope) (Summary, error) {
	l, err := c.Load(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	return l.Summary, nil
}

// Load fetches the scope and returns it with per-debt allocation filled in.
func (c *Calculator) Load(ctx context.Context, scope Scope) (*Ledger, error) {
	debts, err := c.Source.ActiveDebts(ctx, scope)
	if err != nil {
		return nil, err
	}
	payments, err := c.Source.ActivePayments(ctx, scope)
	if err != nil {
		return nil, err
	}
	refunds, err := c.Source.ActiveRefunds(ctx, scope)
	if err != nil {
		return nil, err
	}
	return Build(scope, debts, payments, refunds), nil
}

// Build filters the records to the scope and active statuses, allocates
// payments and refunds to debts and computes the summary.
func Build(scope Scope, debts []*models.Debt, payments []*models.CustomerPayment, refunds []*models.Refund) *Ledger {
	l := &Ledger{Scope: scope}

	debtIDs := make(map[uuid.UUID]bool, len(debts))
	for _, d := range debts {
		if d.CustomerID != scope.CustomerID || d.Status != models.DebtStatusActive || !scope.Matches(d.SubCustomerID) {
			continue
		}
		l.Debts = append(l.Debts, d)
		debtIDs[d.ID] = true
	}
	for _, p := range payments {
		if p.CustomerID != scope.CustomerID || p.Status != models.PaymentStatusActive || !scope.Matches(p.SubCustomerID) {
			continue
		}
		l.Payments = append(l.Payments, p)
	}
	for _, r := range refunds {
		if r.Status != models.RefundStatusActive || !debtIDs[r.DebtID] {
			continue
		}
		l.Refunds = append(l.Refunds, r)
	}

	AllocateByAccount(l.Debts, l.Payments, l.Refunds)
	l.Summary = Summarize(l.Debts, l.Payments, l.Refunds)
	return l
}

// Summarize computes the totals. remaining = max(0, debt - refunded - paid).
func Summarize(debts []*models.Debt, payments []*models.CustomerPayment, refunds []*models.Refund) Summary {
	s := Summary{
		TotalDebt:     decimal.Zero,
		TotalRefunded: decimal.Zero,
		TotalPaid:     decimal.Zero,
		DebtCount:     len(debts),
		PaymentCount:  len(payments),
		RefundCount:   len(refunds),
	}
	for _, d := range debts {
		s.TotalDebt = s.TotalDebt.Add(d.Amount)
	}
	for _, r := range refunds {
		s.TotalRefunded = s.TotalRefunded.Add(r.Amount)
	}
	for _, p := range payments {
		s.TotalPaid = s.TotalPaid.Add(p.Amount)
	}
	s.RemainingDebt = clampZero(s.TotalDebt.Sub(s.TotalRefunded).Sub(s.TotalPaid))
	return s
}

// Allocate fills the derived fields of each debt. Refunds reduce the debt
// they reference. Payments linked to a debt settle it first; the excess and
// unlinked payments settle the oldest debts first.
func Allocate(debts []*models.Debt, payments []*models.CustomerPayment, refunds []*models.Refund) {
	byID := make(map[uuid.UUID]*models.Debt, len(debts))
	for _, d := range debts {
		d.RefundedAmount = decimal.Zero
		d.PaidAmount = decimal.Zero
		byID[d.ID] = d
	}
	for _, r := range refunds {
		if d, ok := byID[r.DebtID]; ok {
			d.RefundedAmount = d.RefundedAmount.Add(r.Amount)
		}
	}
	for _, d := range debts {
		d.RemainingAmount = clampZero(d.Amount.Sub(d.RefundedAmount))
	}

	pool := decimal.Zero
	for _, p := range payments {
		if p.DebtID == nil {
			pool = pool.Add(p.Amount)
			continue
		}
		d, ok := byID[*p.DebtID]
		if !ok {
			pool = pool.Add(p.Amount)
			continue
		}
		applied := decimal.Min(p.Amount, d.RemainingAmount)
		d.PaidAmount = d.PaidAmount.Add(applied)
		d.RemainingAmount = d.RemainingAmount.Sub(applied)
		pool = pool.Add(p.Amount.Sub(applied))
	}

	for _, d := range oldestFirst(debts) {
		if !pool.IsPositive() {
			break
		}
		applied := decimal.Min(pool, d.RemainingAmount)
		d.PaidAmount = d.PaidAmount.Add(applied)
		d.RemainingAmount = d.RemainingAmount.Sub(applied)
		pool = pool.Sub(applied)
	}

	for _, d := range debts {
		d.IsPaid = !d.RemainingAmount.IsPositive()
	}
}

// AllocateByAccount runs Allocate separately for each account: the
// customer's own records and each sub-customer's. A payment only ever
// settles debts of its own account.
func AllocateByAccount(debts []*models.Debt, payments []*models.CustomerPayment, refunds []*models.Refund) {
	type account struct {
		debts    []*models.Debt
		payments []*models.CustomerPayment
	}
	var main account
	subs := make(map[uuid.UUID]*account)
	pick := func(sub *uuid.UUID) *account {
		if sub == nil {
			return &main
		}
		a, ok := subs[*sub]
		if !ok {
			a = &account{}
			subs[*sub] = a
		}
		return a
	}
	for _, d := range debts {
		a := pick(d.SubCustomerID)
		a.debts = append(a.debts, d)
	}
	for _, p := range payments {
		a := pick(p.SubCustomerID)
		a.payments = append(a.payments, p)
	}

	Allocate(main.debts, main.payments, refunds)
	for _, a := range subs {
		Allocate(a.debts, a.payments, refunds)
	}
}

func oldestFirst(debts []*models.Debt) []*models.Debt {
	ordered := make([]*models.Debt, len(debts))
	copy(ordered, debts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})
	return ordered
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
