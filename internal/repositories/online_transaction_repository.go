package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-backend/internal/models"
)

type OnlineTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineTransactionRepository(db *pgxpool.Pool) *OnlineTransactionRepository {
	return &OnlineTransactionRepository{DB: db}
}

const onlineTxColumns = `id, customer_id, sub_customer_id, debt_id, razorpay_order_id, razorpay_payment_id, amount,
	status, failure_reason, customer_payment_id, created_at, updated_at`

func scanOnlineTx(row rowScanner) (*models.OnlineTransaction, error) {
	var t models.OnlineTransaction
	err := row.Scan(&t.ID, &t.CustomerID, &t.SubCustomerID, &t.DebtID, &t.RazorpayOrderID, &t.RazorpayPaymentID,
		&t.Amount, &t.Status, &t.FailureReason, &t.CustomerPaymentID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (r *OnlineTransactionRepository) Create(ctx context.Context, t *models.OnlineTransaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Status = models.OnlineTxStatusCreated
	err := r.DB.QueryRow(ctx,
		`INSERT INTO online_transactions(id, customer_id, sub_customer_id, debt_id, razorpay_order_id, amount, status)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING created_at, updated_at`,
		t.ID, t.CustomerID, t.SubCustomerID, t.DebtID, t.RazorpayOrderID, t.Amount, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return translateError(err)
}

func (r *OnlineTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.OnlineTransaction, error) {
	return scanOnlineTx(r.DB.QueryRow(ctx,
		`SELECT `+onlineTxColumns+` FROM online_transactions WHERE razorpay_order_id=$1`, orderID))
}

// MarkPaid records the customer payment for a captured order exactly once.
// A transaction that is already paid is returned unchanged. The payment is
// recorded even when the account was closed or the debt cancelled after the
// order was created.
func (r *OnlineTransactionRepository) MarkPaid(ctx context.Context, orderID, paymentID string) (*models.OnlineTransaction, error) {
	var t *models.OnlineTransaction
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		t, err = scanOnlineTx(tx.QueryRow(ctx,
			`SELECT `+onlineTxColumns+` FROM online_transactions WHERE razorpay_order_id=$1 FOR UPDATE`, orderID))
		if err != nil {
			return err
		}
		if t.Status == models.OnlineTxStatusPaid {
			return nil
		}

		payment := &models.CustomerPayment{
			CustomerID:    t.CustomerID,
			SubCustomerID: t.SubCustomerID,
			DebtID:        t.DebtID,
			Amount:        t.Amount,
			Type:          models.PaymentMethodOnline,
			Note:          "razorpay " + paymentID,
		}
		if err := recordCapturedPaymentTx(ctx, tx, payment); err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`UPDATE online_transactions
             SET status='paid', razorpay_payment_id=$1, customer_payment_id=$2, failure_reason='', updated_at=NOW()
             WHERE id=$3
             RETURNING updated_at`,
			paymentID, payment.ID, t.ID).Scan(&t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to mark transaction paid: %w", err)
		}
		t.Status = models.OnlineTxStatusPaid
		t.RazorpayPaymentID = paymentID
		t.CustomerPaymentID = &payment.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// MarkFailed never downgrades a paid transaction.
func (r *OnlineTransactionRepository) MarkFailed(ctx context.Context, orderID, paymentID, reason string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
         SET status='failed', razorpay_payment_id=$1, failure_reason=$2, updated_at=NOW()
         WHERE razorpay_order_id=$3 AND status <> 'paid'`,
		paymentID, reason, orderID)
	if err != nil {
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}
	return nil
}
