package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/models"
)

func product(name, price string, stock int) *models.Product {
	return &models.Product{
		ID:        uuid.New(),
		Name:      name,
		Barcode:   name + "-bc",
		SalePrice: dec(price),
		Stock:     stock,
		IsActive:  true,
	}
}

func TestMergeLines(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	merged := MergeLines([]Line{{a, 1}, {b, 2}, {a, 3}})

	require.Len(t, merged, 2)
	assert.True(t, merged[0].ProductID.String() < merged[1].ProductID.String())
	got := map[uuid.UUID]int{}
	for _, l := range merged {
		got[l.ProductID] = l.Quantity
	}
	assert.Equal(t, 4, got[a])
	assert.Equal(t, 2, got[b])
}

func TestPriceLines(t *testing.T) {
	milk := product("milk", "1.25", 10)
	bread := product("bread", "2.40", 1)
	products := map[uuid.UUID]*models.Product{milk.ID: milk, bread.ID: bread}

	items, total, err := PriceLines([]Line{{milk.ID, 4}, {bread.ID, 1}}, products)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "5", items[0].Total.String())
	assert.Equal(t, "milk-bc", items[0].Barcode)
	assert.Equal(t, "7.4", total.String())

	// stock left untouched
	assert.Equal(t, 10, milk.Stock)
}

func TestPriceLinesErrors(t *testing.T) {
	milk := product("milk", "1.25", 2)
	retired := product("retired", "1", 5)
	retired.IsActive = false
	products := map[uuid.UUID]*models.Product{milk.ID: milk, retired.ID: retired}

	tests := []struct {
		name  string
		lines []Line
		want  error
	}{
		{"oversell", []Line{{milk.ID, 3}}, ErrInsufficientStock},
		{"unknown product", []Line{{uuid.New(), 1}}, ErrProductNotFound},
		{"inactive product", []Line{{retired.ID, 1}}, ErrProductInactive},
		{"zero quantity", []Line{{milk.ID, 0}}, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PriceLines(tt.lines, products)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSettle(t *testing.T) {
	total := dec("100")

	tests := []struct {
		name        string
		paid        string
		paymentType string
		hasCustomer bool
		wantPaid    string
		wantDebt    string
		wantErr     error
	}{
		{"cash in full", "100", models.PaymentTypeCash, false, "100", "0", nil},
		{"cash with no amount means full", "0", models.PaymentTypeCash, false, "100", "0", nil},
		{"card partial with customer", "40", models.PaymentTypeCard, true, "40", "100", nil},
		{"card partial without customer", "40", models.PaymentTypeCard, false, "", "", ErrCustomerRequired},
		{"credit nothing down", "0", models.PaymentTypeCredit, true, "0", "100", nil},
		{"credit with deposit", "25", models.PaymentTypeCredit, true, "25", "100", nil},
		{"credit without customer", "0", models.PaymentTypeCredit, false, "", "", ErrCustomerRequired},
		{"overpaid", "120", models.PaymentTypeCash, true, "", "", ErrPaidExceedsTotal},
		{"negative", "-1", models.PaymentTypeCash, true, "", "", ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Settle(total, dec(tt.paid), tt.paymentType, tt.hasCustomer)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, s.Paid.String())
			assert.Equal(t, tt.wantDebt, s.DebtAmount.String())
		})
	}
}

func TestSettleThenBalance(t *testing.T) {
	// a partially paid credit sale leaves exactly the unpaid part outstanding
	customer := uuid.New()
	s, err := Settle(dec("100"), dec("40"), models.PaymentTypeCredit, true)
	require.NoError(t, err)

	d := debt(customer, nil, s.DebtAmount.String(), t0)
	p := payment(customer, nil, s.Paid.String())
	p.DebtID = &d.ID

	l := Build(Scope{CustomerID: customer}, []*models.Debt{d}, []*models.CustomerPayment{p}, nil)
	assert.Equal(t, "60", l.Summary.RemainingDebt.String())
	assert.Equal(t, "60", d.RemainingAmount.String())
	assert.True(t, decimal.Zero.Equal(d.RefundedAmount))
}
