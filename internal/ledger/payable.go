package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-backend/internal/models"
)

// SummarizePayables allocates vendor payments to payables the same way
// customer payments are allocated to debts and returns the vendor totals.
func SummarizePayables(vendorID uuid.UUID, debts []*models.MyDebt, payments []*models.MyPayment) models.PayableSummary {
	s := models.PayableSummary{
		VendorID:  vendorID,
		TotalDebt: decimal.Zero,
		TotalPaid: decimal.Zero,
	}

	var active []*models.MyDebt
	byID := make(map[uuid.UUID]*models.MyDebt)
	for _, d := range debts {
		if d.VendorID != vendorID || d.Status != models.DebtStatusActive {
			continue
		}
		d.PaidAmount = decimal.Zero
		d.RemainingAmount = d.Amount
		active = append(active, d)
		byID[d.ID] = d
		s.TotalDebt = s.TotalDebt.Add(d.Amount)
		s.DebtCount++
	}

	pool := decimal.Zero
	for _, p := range payments {
		if p.VendorID != vendorID || p.Status != models.PaymentStatusActive {
			continue
		}
		s.TotalPaid = s.TotalPaid.Add(p.Amount)
		s.PaymentCount++
		if p.MyDebtID == nil {
			pool = pool.Add(p.Amount)
			continue
		}
		d, ok := byID[*p.MyDebtID]
		if !ok {
			pool = pool.Add(p.Amount)
			continue
		}
		applied := decimal.Min(p.Amount, d.RemainingAmount)
		d.PaidAmount = d.PaidAmount.Add(applied)
		d.RemainingAmount = d.RemainingAmount.Sub(applied)
		pool = pool.Add(p.Amount.Sub(applied))
	}

	// active is in creation order as loaded
	for _, d := range active {
		if !pool.IsPositive() {
			break
		}
		applied := decimal.Min(pool, d.RemainingAmount)
		d.PaidAmount = d.PaidAmount.Add(applied)
		d.RemainingAmount = d.RemainingAmount.Sub(applied)
		pool = pool.Sub(applied)
	}
	for _, d := range active {
		d.IsPaid = !d.RemainingAmount.IsPositive()
	}

	s.RemainingDebt = clampZero(s.TotalDebt.Sub(s.TotalPaid))
	return s
}
