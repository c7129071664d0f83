package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-backend/internal/models"
)

// Line is a resolved cart line.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// MergeLines combines repeated products and orders lines by product id, the
// order in which rows are locked.
func MergeLines(lines []Line) []Line {
	qty := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		qty[l.ProductID] += l.Quantity
	}
	merged := make([]Line, 0, len(qty))
	for id, q := range qty {
		merged = append(merged, Line{ProductID: id, Quantity: q})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID.String() < merged[j].ProductID.String()
	})
	return merged
}

// PriceLines prices merged lines at the current sale price and checks stock.
// Nothing is mutated; callers decrement stock after a successful check.
func PriceLines(lines []Line, products map[uuid.UUID]*models.Product) ([]models.SaleItem, decimal.Decimal, error) {
	items := make([]models.SaleItem, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
		}
		if !p.IsActive {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", ErrProductInactive, p.Name)
		}
		if l.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: quantity for %s", ErrInvalidAmount, p.Name)
		}
		if p.Stock < l.Quantity {
			return nil, decimal.Zero, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, p.Name, p.Stock, l.Quantity)
		}
		lineTotal := p.SalePrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		items = append(items, models.SaleItem{
			ProductID: p.ID,
			Name:      p.Name,
			Barcode:   p.Barcode,
			Quantity:  l.Quantity,
			UnitPrice: p.SalePrice,
			Total:     lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

// Settlement says how a checkout total is split between money taken now and
// a debt.
type Settlement struct {
	Paid       decimal.Decimal
	DebtAmount decimal.Decimal
}

// Settle applies the checkout payment rules. Cash and card sales with no
// paid amount are treated as paid in full. Any unpaid remainder becomes a
// debt for the full total (the paid part is recorded as a payment against
// it) and therefore needs a customer.
func Settle(total, paid decimal.Decimal, paymentType string, hasCustomer bool) (Settlement, error) {
	if paid.IsNegative() {
		return Settlement{}, ErrInvalidAmount
	}
	if paymentType == models.PaymentTypeCredit && !hasCustomer {
		return Settlement{}, ErrCustomerRequired
	}
	if paymentType != models.PaymentTypeCredit && paid.IsZero() {
		paid = total
	}
	if paid.GreaterThan(total) {
		return Settlement{}, ErrPaidExceedsTotal
	}
	if paid.LessThan(total) {
		if !hasCustomer {
			return Settlement{}, ErrCustomerRequired
		}
		return Settlement{Paid: paid, DebtAmount: total}, nil
	}
	return Settlement{Paid: paid, DebtAmount: decimal.Zero}, nil
}
