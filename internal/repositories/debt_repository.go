package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
)

// DebtRepository owns the receivable write paths: debts, customer payments
// and refunds. Every write runs in a transaction with its outbox event.
type DebtRepository struct {
	DB *pgxpool.Pool
}

func NewDebtRepository(db *pgxpool.Pool) *DebtRepository {
	return &DebtRepository{DB: db}
}

func (r *DebtRepository) CreateDebt(ctx context.Context, d *models.Debt) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := checkWritable(ctx, tx, d.CustomerID, d.SubCustomerID); err != nil {
			return err
		}
		if err := insertDebt(ctx, tx, d); err != nil {
			return err
		}
		return insertEvent(ctx, tx, "debt", d.ID, models.EventDebtCreated,
			ledgerPayload(d.CustomerID, d.SubCustomerID, d.Amount))
	})
}

func insertDebt(ctx context.Context, tx DBTX, d *models.Debt) error {
	d.ID = uuid.New()
	d.Status = models.DebtStatusActive
	err := tx.QueryRow(ctx,
		`INSERT INTO debts(id, customer_id, sub_customer_id, sale_id, amount, description, type, status)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING created_at, updated_at`,
		d.ID, d.CustomerID, d.SubCustomerID, d.SaleID, d.Amount, d.Description, d.Type, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", translateError(err))
	}
	return nil
}

func (r *DebtRepository) GetDebt(ctx context.Context, id uuid.UUID) (*models.Debt, error) {
	return scanDebt(r.DB.QueryRow(ctx, `SELECT `+debtColumns+` FROM debts WHERE id=$1`, id))
}

func (r *DebtRepository) UpdateDescription(ctx context.Context, id uuid.UUID, description string) error {
	return expectOne(r.DB.Exec(ctx,
		`UPDATE debts SET description=$1, updated_at=NOW() WHERE id=$2`, description, id))
}

// CancelDebt cancels an active manual or adjustment debt. Sale debts are
// cancelled with their sale.
func (r *DebtRepository) CancelDebt(ctx context.Context, id uuid.UUID) (*models.Debt, error) {
	var debt *models.Debt
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		debt, err = scanDebt(tx.QueryRow(ctx, `SELECT `+debtColumns+` FROM debts WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if debt.Status != models.DebtStatusActive {
			return ledger.ErrDebtNotActive
		}
		if debt.SaleID != nil {
			return fmt.Errorf("%w: cancel the sale instead", ErrConflict)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE debts SET status='cancelled', updated_at=NOW() WHERE id=$1`, id); err != nil {
			return fmt.Errorf("failed to cancel debt: %w", err)
		}
		debt.Status = models.DebtStatusCancelled
		return insertEvent(ctx, tx, "debt", debt.ID, models.EventDebtCancelled,
			ledgerPayload(debt.CustomerID, debt.SubCustomerID, debt.Amount))
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

// ListDebts returns the debts of a query, any status, newest first, with
// the linked sale and its items attached.
func (r *DebtRepository) ListDebts(ctx context.Context, q models.DebtQuery) ([]*models.Debt, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+prefixed("d", debtColumns)+` FROM debts d
         WHERE d.customer_id=$1
           AND ($2::uuid IS NULL OR d.sub_customer_id=$2)
           AND ($3::timestamptz IS NULL OR d.created_at >= $3)
           AND ($4::timestamptz IS NULL OR d.created_at < $4)
           AND ($5 = '' OR EXISTS (
                SELECT 1 FROM sale_items si
                WHERE si.sale_id = d.sale_id
                  AND (si.name ILIKE $6 OR si.barcode ILIKE $6)))
         ORDER BY d.created_at DESC, d.id`,
		q.CustomerID, q.SubCustomerID, q.From, q.To, q.Search, likePattern(q.Search))
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	debts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Debt, error) {
		return scanDebt(row)
	})
	if err != nil {
		return nil, err
	}

	var saleIDs []uuid.UUID
	for _, d := range debts {
		if d.SaleID != nil {
			saleIDs = append(saleIDs, *d.SaleID)
		}
	}
	if len(saleIDs) == 0 {
		return debts, nil
	}
	sales, err := loadSales(ctx, r.DB, saleIDs)
	if err != nil {
		return nil, err
	}
	for _, d := range debts {
		if d.SaleID != nil {
			d.Sale = sales[*d.SaleID]
		}
	}
	return debts, nil
}

// ListPayments returns payments of a query, any status, newest first. Only
// customer, sub-customer and date filters apply.
func (r *DebtRepository) ListPayments(ctx context.Context, q models.DebtQuery) ([]*models.CustomerPayment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+paymentColumns+` FROM customer_payments
         WHERE customer_id=$1
           AND ($2::uuid IS NULL OR sub_customer_id=$2)
           AND ($3::timestamptz IS NULL OR payment_date >= $3)
           AND ($4::timestamptz IS NULL OR payment_date < $4)
         ORDER BY payment_date DESC, id`,
		q.CustomerID, q.SubCustomerID, q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.CustomerPayment, error) {
		return scanPayment(row)
	})
}

func (r *DebtRepository) GetPayment(ctx context.Context, id uuid.UUID) (*models.CustomerPayment, error) {
	return scanPayment(r.DB.QueryRow(ctx, `SELECT `+paymentColumns+` FROM customer_payments WHERE id=$1`, id))
}

// CreatePayment records a customer payment. A linked debt must be active and
// belong to the same customer and scope.
func (r *DebtRepository) CreatePayment(ctx context.Context, p *models.CustomerPayment) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		return createPaymentTx(ctx, tx, p)
	})
}

func createPaymentTx(ctx context.Context, tx DBTX, p *models.CustomerPayment) error {
	if err := checkWritable(ctx, tx, p.CustomerID, p.SubCustomerID); err != nil {
		return err
	}
	if p.DebtID != nil {
		debt, err := scanDebt(tx.QueryRow(ctx, `SELECT `+debtColumns+` FROM debts WHERE id=$1`, *p.DebtID))
		if err != nil {
			if err == ErrNotFound {
				return fmt.Errorf("%w: debt", ErrNotFound)
			}
			return err
		}
		if debt.Status != models.DebtStatusActive {
			return ledger.ErrDebtNotActive
		}
		scope := ledger.Scope{CustomerID: p.CustomerID, SubCustomerID: p.SubCustomerID}
		if debt.CustomerID != p.CustomerID || !scope.Matches(debt.SubCustomerID) {
			return fmt.Errorf("%w: debt belongs to another account", ledger.ErrSubCustomerMismatch)
		}
		if p.SubCustomerID == nil {
			p.SubCustomerID = debt.SubCustomerID
		}
		if p.SaleID == nil {
			p.SaleID = debt.SaleID
		}
	}
	if err := insertPayment(ctx, tx, p); err != nil {
		return err
	}
	return insertEvent(ctx, tx, "payment", p.ID, models.EventPaymentRecorded,
		ledgerPayload(p.CustomerID, p.SubCustomerID, p.Amount))
}

// recordCapturedPaymentTx stores money the gateway already took. It skips
// the writability gate and drops a debt link that no longer applies.
func recordCapturedPaymentTx(ctx context.Context, tx DBTX, p *models.CustomerPayment) error {
	if p.DebtID != nil {
		debt, err := scanDebt(tx.QueryRow(ctx, `SELECT `+debtColumns+` FROM debts WHERE id=$1`, *p.DebtID))
		if err != nil && err != ErrNotFound {
			return err
		}
		if err == ErrNotFound {
			debt = nil
		}
		scope := ledger.Scope{CustomerID: p.CustomerID, SubCustomerID: p.SubCustomerID}
		if ledger.CaptureKeepsDebtLink(debt, scope) {
			if p.SubCustomerID == nil {
				p.SubCustomerID = debt.SubCustomerID
			}
			if p.SaleID == nil {
				p.SaleID = debt.SaleID
			}
		} else {
			p.DebtID = nil
		}
	}
	if err := insertPayment(ctx, tx, p); err != nil {
		return err
	}
	return insertEvent(ctx, tx, "payment", p.ID, models.EventPaymentRecorded,
		ledgerPayload(p.CustomerID, p.SubCustomerID, p.Amount))
}

func insertPayment(ctx context.Context, tx DBTX, p *models.CustomerPayment) error {
	p.ID = uuid.New()
	p.Status = models.PaymentStatusActive
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO customer_payments(id, customer_id, sub_customer_id, debt_id, sale_id, amount, payment_date, type, status, note)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING created_at`,
		p.ID, p.CustomerID, p.SubCustomerID, p.DebtID, p.SaleID, p.Amount, p.PaymentDate, p.Type, p.Status, p.Note,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", translateError(err))
	}
	return nil
}

func (r *DebtRepository) CancelPayment(ctx context.Context, id uuid.UUID) (*models.CustomerPayment, error) {
	var payment *models.CustomerPayment
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		payment, err = scanPayment(tx.QueryRow(ctx,
			`SELECT `+paymentColumns+` FROM customer_payments WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if payment.Status != models.PaymentStatusActive {
			return fmt.Errorf("%w: payment is %s", ErrConflict, payment.Status)
		}
		if err := checkWritable(ctx, tx, payment.CustomerID, payment.SubCustomerID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE customer_payments SET status='cancelled' WHERE id=$1`, id); err != nil {
			return fmt.Errorf("failed to cancel payment: %w", err)
		}
		payment.Status = models.PaymentStatusCancelled
		return insertEvent(ctx, tx, "payment", payment.ID, models.EventPaymentCancelled,
			ledgerPayload(payment.CustomerID, payment.SubCustomerID, payment.Amount))
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CreateRefund records a refund against a locked debt, optionally tied to a
// sale line and restocking the product.
func (r *DebtRepository) CreateRefund(ctx context.Context, rf *models.Refund) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		debt, err := scanDebt(tx.QueryRow(ctx,
			`SELECT `+debtColumns+` FROM debts WHERE id=$1 FOR UPDATE`, rf.DebtID))
		if err != nil {
			return err
		}
		existing, err := NewLedgerRepository(tx).RefundsForDebt(ctx, debt.ID)
		if err != nil {
			return err
		}
		if err := ledger.ValidateRefund(debt, existing, rf.Amount); err != nil {
			return err
		}
		rf.CustomerID = debt.CustomerID
		rf.SubCustomerID = debt.SubCustomerID

		if rf.SaleItemID != nil {
			item, err := getSaleItem(ctx, tx, *rf.SaleItemID)
			if err != nil {
				return err
			}
			if debt.SaleID == nil || item.SaleID != *debt.SaleID {
				return fmt.Errorf("%w: sale item is not part of this debt's sale", ErrInvalidReference)
			}
			already := 0
			for _, e := range existing {
				if e.Status == models.RefundStatusActive && e.SaleItemID != nil && *e.SaleItemID == item.ID {
					already += e.Quantity
				}
			}
			if err := ledger.ValidateRefundQuantity(item, already, rf.Quantity); err != nil {
				return err
			}
			rf.ProductID = &item.ProductID
			rf.ProductName = item.Name
			rf.Barcode = item.Barcode
		} else if rf.Restock {
			return fmt.Errorf("%w: restock needs a sale item", ErrInvalidReference)
		}

		rf.ID = uuid.New()
		rf.Status = models.RefundStatusActive
		err = tx.QueryRow(ctx,
			`INSERT INTO refunds(id, debt_id, customer_id, sub_customer_id, sale_item_id, product_id, product_name,
                                 barcode, quantity, amount, restock, status, reason)
             VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
             RETURNING created_at`,
			rf.ID, rf.DebtID, rf.CustomerID, rf.SubCustomerID, rf.SaleItemID, rf.ProductID, rf.ProductName,
			rf.Barcode, rf.Quantity, rf.Amount, rf.Restock, rf.Status, rf.Reason,
		).Scan(&rf.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert refund: %w", translateError(err))
		}

		payload := ledgerPayload(rf.CustomerID, rf.SubCustomerID, rf.Amount)
		if rf.Restock && rf.ProductID != nil && rf.Quantity > 0 {
			if err := adjustStock(ctx, tx, *rf.ProductID, rf.Quantity); err != nil {
				return fmt.Errorf("failed to restock: %w", err)
			}
			payload.ProductIDs = []uuid.UUID{*rf.ProductID}
		}
		return insertEvent(ctx, tx, "refund", rf.ID, models.EventRefundRecorded, payload)
	})
}

func (r *DebtRepository) ListRefunds(ctx context.Context, debtID uuid.UUID) ([]*models.Refund, error) {
	return NewLedgerRepository(r.DB).RefundsForDebt(ctx, debtID)
}

// CancelRefund reverses a refund and any restock it made. Only refunds on
// an active debt of a writable account can be reversed; a cancelled sale has
// already taken its restocked units back.
func (r *DebtRepository) CancelRefund(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	var refund *models.Refund
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		// Sale first, matching the lock order of SaleRepository.Cancel.
		if _, err := tx.Exec(ctx,
			`SELECT 1 FROM sales WHERE id = (
                SELECT d.sale_id FROM refunds rf JOIN debts d ON d.id = rf.debt_id WHERE rf.id=$1)
             FOR SHARE`, id); err != nil {
			return fmt.Errorf("failed to lock refund sale: %w", err)
		}
		var err error
		refund, err = scanRefund(tx.QueryRow(ctx, `SELECT `+refundColumns+` FROM refunds WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if refund.Status != models.RefundStatusActive {
			return fmt.Errorf("%w: refund is already cancelled", ErrConflict)
		}
		if err := checkWritable(ctx, tx, refund.CustomerID, refund.SubCustomerID); err != nil {
			return err
		}
		var debtStatus string
		if err := tx.QueryRow(ctx,
			`SELECT status FROM debts WHERE id=$1 FOR SHARE`, refund.DebtID).Scan(&debtStatus); err != nil {
			return fmt.Errorf("failed to load refund debt: %w", translateError(err))
		}
		if debtStatus != models.DebtStatusActive {
			return ledger.ErrDebtNotActive
		}
		payload := ledgerPayload(refund.CustomerID, refund.SubCustomerID, refund.Amount)
		if refund.Restock && refund.ProductID != nil && refund.Quantity > 0 {
			if _, err := lockProducts(ctx, tx, []uuid.UUID{*refund.ProductID}); err != nil {
				return err
			}
			if err := adjustStock(ctx, tx, *refund.ProductID, -refund.Quantity); err != nil {
				if err == ErrNotFound {
					return err
				}
				return fmt.Errorf("%w: restocked items are no longer in stock", ledger.ErrInsufficientStock)
			}
			payload.ProductIDs = []uuid.UUID{*refund.ProductID}
		}
		if _, err := tx.Exec(ctx, `UPDATE refunds SET status='cancelled' WHERE id=$1`, id); err != nil {
			return fmt.Errorf("failed to cancel refund: %w", err)
		}
		refund.Status = models.RefundStatusCancelled
		return insertEvent(ctx, tx, "refund", refund.ID, models.EventRefundCancelled, payload)
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}
