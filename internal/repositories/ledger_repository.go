package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
)

// LedgerRepository loads the active receivable records of a scope. It runs
// on the pool or on a transaction, so the close gate can use it under lock.
type LedgerRepository struct {
	DB DBTX
}

func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{DB: db}
}

var _ ledger.Source = (*LedgerRepository)(nil)

const debtColumns = `id, customer_id, sub_customer_id, sale_id, amount, description, type, status, created_at, updated_at`

func scanDebt(row rowScanner) (*models.Debt, error) {
	var d models.Debt
	err := row.Scan(&d.ID, &d.CustomerID, &d.SubCustomerID, &d.SaleID, &d.Amount, &d.Description,
		&d.Type, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &d, nil
}

const paymentColumns = `id, customer_id, sub_customer_id, debt_id, sale_id, amount, payment_date, type, status, note, created_at`

func scanPayment(row rowScanner) (*models.CustomerPayment, error) {
	var p models.CustomerPayment
	err := row.Scan(&p.ID, &p.CustomerID, &p.SubCustomerID, &p.DebtID, &p.SaleID, &p.Amount,
		&p.PaymentDate, &p.Type, &p.Status, &p.Note, &p.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

const refundColumns = `id, debt_id, customer_id, sub_customer_id, sale_item_id, product_id, product_name,
	barcode, quantity, amount, restock, status, reason, created_at`

func scanRefund(row rowScanner) (*models.Refund, error) {
	var r models.Refund
	err := row.Scan(&r.ID, &r.DebtID, &r.CustomerID, &r.SubCustomerID, &r.SaleItemID, &r.ProductID,
		&r.ProductName, &r.Barcode, &r.Quantity, &r.Amount, &r.Restock, &r.Status, &r.Reason, &r.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &r, nil
}

func (r *LedgerRepository) ActiveDebts(ctx context.Context, scope ledger.Scope) ([]*models.Debt, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+debtColumns+` FROM debts
         WHERE customer_id=$1 AND status='active'
           AND ($2::uuid IS NULL OR sub_customer_id=$2)
         ORDER BY created_at, id`,
		scope.CustomerID, scope.SubCustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func (r *LedgerRepository) ActivePayments(ctx context.Context, scope ledger.Scope) ([]*models.CustomerPayment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+paymentColumns+` FROM customer_payments
         WHERE customer_id=$1 AND status='active'
           AND ($2::uuid IS NULL OR sub_customer_id=$2)
         ORDER BY payment_date, id`,
		scope.CustomerID, scope.SubCustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.CustomerPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ActiveRefunds returns refunds on active debts of the scope.
func (r *LedgerRepository) ActiveRefunds(ctx context.Context, scope ledger.Scope) ([]*models.Refund, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+prefixed("rf", refundColumns)+`
         FROM refunds rf
         JOIN debts d ON d.id = rf.debt_id
         WHERE d.customer_id=$1 AND d.status='active' AND rf.status='active'
           AND ($2::uuid IS NULL OR d.sub_customer_id=$2)
         ORDER BY rf.created_at, rf.id`,
		scope.CustomerID, scope.SubCustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*models.Refund
	for rows.Next() {
		rf, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}

// CustomersWithActiveDebt lists the customers that have at least one
// active debt, for the debtors report and the dashboard.
func (r *LedgerRepository) CustomersWithActiveDebt(ctx context.Context) ([]*models.Customer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT c.id, c.name, c.phone, c.address, c.color, c.created_at, c.updated_at
         FROM customers c
         WHERE EXISTS (SELECT 1 FROM debts d WHERE d.customer_id = c.id AND d.status='active')
         ORDER BY c.name, c.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query debtors: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// RefundsForDebt returns every refund of a debt, active or not.
func (r *LedgerRepository) RefundsForDebt(ctx context.Context, debtID uuid.UUID) ([]*models.Refund, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+refundColumns+` FROM refunds WHERE debt_id=$1 ORDER BY created_at, id`, debtID)
	if err != nil {
		return nil, fmt.Errorf("failed to query refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*models.Refund
	for rows.Next() {
		rf, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}
