package repositories

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/database"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/migrations"
)

// testPool connects to TEST_DATABASE_URL, applies the embedded migrations
// and empties every table. Tests using it are skipped without a database.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, database.NewMigratorWithFS(pool, migrations.FS, ".", logger).RunMigrations(ctx))

	_, err = pool.Exec(ctx, `TRUNCATE idempotency_keys, outbox_events, online_transactions, cart_items, carts,
        my_payments, my_debts, purchase_order_items, purchase_orders, refunds, customer_payments, debts,
        sale_items, sales, products, vendors, sub_customers, customers, companies, users CASCADE`)
	require.NoError(t, err)
	return pool
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	pool      *pgxpool.Pool
	customers *CustomerRepository
	products  *ProductRepository
	sales     *SaleRepository
	debts     *DebtRepository
	online    *OnlineTransactionRepository
}

func newFixture(t *testing.T) *fixture {
	pool := testPool(t)
	return &fixture{
		pool:      pool,
		customers: NewCustomerRepository(pool),
		products:  NewProductRepository(pool),
		sales:     NewSaleRepository(pool),
		debts:     NewDebtRepository(pool),
		online:    NewOnlineTransactionRepository(pool),
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, SalePrice: dec(price), PurchasePrice: dec(price), Stock: stock, Unit: "pcs"}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) account(t *testing.T) (*models.Customer, *models.SubCustomer) {
	t.Helper()
	ctx := context.Background()
	c := &models.Customer{Name: "Sharma Traders"}
	require.NoError(t, f.customers.Create(ctx, c))
	s := &models.SubCustomer{CustomerID: c.ID, Name: "Shop 2"}
	require.NoError(t, f.customers.CreateSubCustomer(ctx, s))
	return c, s
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) remaining(t *testing.T, customerID uuid.UUID, subID *uuid.UUID) decimal.Decimal {
	t.Helper()
	summary, err := ledger.NewCalculator(NewLedgerRepository(f.pool)).
		Balance(context.Background(), ledger.Scope{CustomerID: customerID, SubCustomerID: subID})
	require.NoError(t, err)
	return summary.RemainingDebt
}

func (f *fixture) creditSale(t *testing.T, c *models.Customer, s *models.SubCustomer, p *models.Product, qty int) *models.CheckoutResult {
	t.Helper()
	var subID *uuid.UUID
	if s != nil {
		subID = &s.ID
	}
	res, err := f.sales.Checkout(context.Background(), CheckoutParams{
		Lines:         []models.CheckoutLine{{ProductID: &p.ID, Quantity: qty}},
		CustomerID:    &c.ID,
		SubCustomerID: subID,
		PaymentType:   models.PaymentTypeCredit,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Debt)
	return res
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tea := f.product(t, "Tea", "10", 5)
	sugar := f.product(t, "Sugar", "40", 1)

	_, err := f.sales.Checkout(ctx, CheckoutParams{
		Lines: []models.CheckoutLine{
			{ProductID: &tea.ID, Quantity: 2},
			{ProductID: &sugar.ID, Quantity: 2},
		},
		PaymentType: models.PaymentTypeCash,
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	assert.Equal(t, 5, f.stock(t, tea.ID))
	assert.Equal(t, 1, f.stock(t, sugar.ID))
	var sales int
	require.NoError(t, f.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&sales))
	assert.Zero(t, sales)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	rice := f.product(t, "Rice", "60", 5)

	const buyers = 4
	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.sales.Checkout(context.Background(), CheckoutParams{
				Lines:       []models.CheckoutLine{{ProductID: &rice.ID, Quantity: 3}},
				PaymentType: models.PaymentTypeCash,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, f.stock(t, rice.ID))
}

func TestCheckoutIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soap := f.product(t, "Soap", "25", 10)
	params := CheckoutParams{
		Lines:          []models.CheckoutLine{{ProductID: &soap.ID, Quantity: 2}},
		PaymentType:    models.PaymentTypeCash,
		IdempotencyKey: "till-1-0001",
	}

	first, err := f.sales.Checkout(ctx, params)
	require.NoError(t, err)
	second, err := f.sales.Checkout(ctx, params)
	require.NoError(t, err)

	assert.False(t, first.Replay)
	assert.True(t, second.Replay)
	assert.Equal(t, first.Sale.ID, second.Sale.ID)
	assert.Equal(t, 8, f.stock(t, soap.ID))
}

func TestRefundLowersRemaining(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, s := f.account(t)
	oil := f.product(t, "Oil", "100", 3)
	res := f.creditSale(t, c, s, oil, 1)

	rf := &models.Refund{DebtID: res.Debt.ID, Amount: dec("30"), Reason: "damaged"}
	require.NoError(t, f.debts.CreateRefund(ctx, rf))
	assert.True(t, f.remaining(t, c.ID, &s.ID).Equal(dec("70")))

	over := &models.Refund{DebtID: res.Debt.ID, Amount: dec("70.01")}
	assert.ErrorIs(t, f.debts.CreateRefund(ctx, over), ledger.ErrRefundExceedsDebt)
}

func TestCloseGateAndReversals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, s := f.account(t)
	flour := f.product(t, "Flour", "100", 3)
	res := f.creditSale(t, c, s, flour, 1)

	_, err := f.customers.CloseSubCustomer(ctx, s.ID)
	require.ErrorIs(t, err, ledger.ErrOutstandingBalance)

	payment := &models.CustomerPayment{
		CustomerID: c.ID, SubCustomerID: &s.ID, DebtID: &res.Debt.ID,
		Amount: dec("100"), Type: models.PaymentMethodCash,
	}
	require.NoError(t, f.debts.CreatePayment(ctx, payment))
	_, err = f.customers.CloseSubCustomer(ctx, s.ID)
	require.NoError(t, err)

	_, err = f.debts.CancelPayment(ctx, payment.ID)
	assert.ErrorIs(t, err, ledger.ErrAccountClosed)
	assert.True(t, f.remaining(t, c.ID, &s.ID).IsZero())

	_, err = f.customers.OpenSubCustomer(ctx, s.ID)
	require.NoError(t, err)
	cancelled, err := f.debts.CancelPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, cancelled.Status)
	assert.True(t, f.remaining(t, c.ID, &s.ID).Equal(dec("100")))
}

func TestCancelRefundOnClosedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, s := f.account(t)
	salt := f.product(t, "Salt", "50", 4)
	res := f.creditSale(t, c, s, salt, 2)

	rf := &models.Refund{DebtID: res.Debt.ID, Amount: dec("100"), Reason: "returned"}
	require.NoError(t, f.debts.CreateRefund(ctx, rf))
	_, err := f.customers.CloseSubCustomer(ctx, s.ID)
	require.NoError(t, err)

	_, err = f.debts.CancelRefund(ctx, rf.ID)
	assert.ErrorIs(t, err, ledger.ErrAccountClosed)
	assert.True(t, f.remaining(t, c.ID, &s.ID).IsZero())
}

func TestSaleCancelThenCancelRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, _ := f.account(t)
	jam := f.product(t, "Jam", "80", 5)
	res := f.creditSale(t, c, nil, jam, 3)
	require.Equal(t, 2, f.stock(t, jam.ID))

	item := res.Sale.Items[0]
	rf := &models.Refund{DebtID: res.Debt.ID, SaleItemID: &item.ID, Quantity: 1, Amount: dec("80"), Restock: true}
	require.NoError(t, f.debts.CreateRefund(ctx, rf))
	require.Equal(t, 3, f.stock(t, jam.ID))

	_, err := f.sales.Cancel(ctx, res.Sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, jam.ID))
	debt, err := f.debts.GetDebt(ctx, res.Debt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DebtStatusCancelled, debt.Status)

	_, err = f.debts.CancelRefund(ctx, rf.ID)
	assert.ErrorIs(t, err, ledger.ErrDebtNotActive)
	assert.Equal(t, 5, f.stock(t, jam.ID))
}

func TestMarkPaidAlwaysRecordsCapturedMoney(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("closed account", func(t *testing.T) {
		c, s := f.account(t)
		tx := &models.OnlineTransaction{CustomerID: c.ID, SubCustomerID: &s.ID, RazorpayOrderID: "order_closed", Amount: dec("40")}
		require.NoError(t, f.online.Create(ctx, tx))
		_, err := f.customers.CloseSubCustomer(ctx, s.ID)
		require.NoError(t, err)

		paid, err := f.online.MarkPaid(ctx, "order_closed", "pay_closed")
		require.NoError(t, err)
		assert.Equal(t, models.OnlineTxStatusPaid, paid.Status)
		require.NotNil(t, paid.CustomerPaymentID)
		payment, err := f.debts.GetPayment(ctx, *paid.CustomerPaymentID)
		require.NoError(t, err)
		assert.True(t, payment.Amount.Equal(dec("40")))

		again, err := f.online.MarkPaid(ctx, "order_closed", "pay_closed")
		require.NoError(t, err)
		assert.Equal(t, *paid.CustomerPaymentID, *again.CustomerPaymentID)
	})

	t.Run("cancelled debt", func(t *testing.T) {
		c, _ := f.account(t)
		bread := f.product(t, "Bread", "30", 2)
		res := f.creditSale(t, c, nil, bread, 1)
		tx := &models.OnlineTransaction{CustomerID: c.ID, DebtID: &res.Debt.ID, RazorpayOrderID: "order_cancelled", Amount: dec("30")}
		require.NoError(t, f.online.Create(ctx, tx))
		_, err := f.sales.Cancel(ctx, res.Sale.ID)
		require.NoError(t, err)

		paid, err := f.online.MarkPaid(ctx, "order_cancelled", "pay_cancelled")
		require.NoError(t, err)
		require.NotNil(t, paid.CustomerPaymentID)
		payment, err := f.debts.GetPayment(ctx, *paid.CustomerPaymentID)
		require.NoError(t, err)
		assert.Nil(t, payment.DebtID)
		assert.Equal(t, models.PaymentStatusActive, payment.Status)
	})
}
