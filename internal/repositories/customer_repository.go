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

type CustomerRepository struct {
	DB *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

const customerColumns = `id, name, phone, address, color, created_at, updated_at`

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	c.ID = uuid.New()
	err := r.DB.QueryRow(ctx,
		`INSERT INTO customers(id, name, phone, address, color)
         VALUES($1, $2, $3, $4, $5)
         RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Phone, c.Address, c.Color,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translateError(err)
}

func (r *CustomerRepository) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
}

// List returns customers whose name or phone contains q (all when empty).
func (r *CustomerRepository) List(ctx context.Context, q string) ([]*models.Customer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+customerColumns+` FROM customers
         WHERE $1 = '' OR name ILIKE $2 OR phone LIKE $2
         ORDER BY name, id`, q, likePattern(q))
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
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

func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE customers SET name=$1, phone=$2, address=$3, color=$4, updated_at=NOW()
         WHERE id=$5 RETURNING created_at, updated_at`,
		c.Name, c.Phone, c.Address, c.Color, c.ID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translateError(err)
}

// Delete removes a customer with no ledger history. Sub-customers go with it.
func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM debts WHERE customer_id=$1)
                 OR EXISTS (SELECT 1 FROM customer_payments WHERE customer_id=$1)
                 OR EXISTS (SELECT 1 FROM sales WHERE customer_id=$1)`, id).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("failed to check customer references: %w", err)
		}
		if referenced {
			return fmt.Errorf("%w: customer has debts, payments or sales", ErrReferenced)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE customer_id=$1`, id); err != nil {
			return translateDeleteError(err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sub_customers WHERE customer_id=$1`, id); err != nil {
			return translateDeleteError(err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
		if err != nil {
			return translateDeleteError(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

const subCustomerColumns = `id, customer_id, name, description, status, closed_at, created_at, updated_at`

func scanSubCustomer(row rowScanner) (*models.SubCustomer, error) {
	var s models.SubCustomer
	err := row.Scan(&s.ID, &s.CustomerID, &s.Name, &s.Description, &s.Status, &s.ClosedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}

func (r *CustomerRepository) CreateSubCustomer(ctx context.Context, s *models.SubCustomer) error {
	s.ID = uuid.New()
	s.Status = models.SubCustomerActive
	err := r.DB.QueryRow(ctx,
		`INSERT INTO sub_customers(id, customer_id, name, description, status)
         VALUES($1, $2, $3, $4, $5)
         RETURNING created_at, updated_at`,
		s.ID, s.CustomerID, s.Name, s.Description, s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return translateError(err)
}

func (r *CustomerRepository) GetSubCustomer(ctx context.Context, id uuid.UUID) (*models.SubCustomer, error) {
	return scanSubCustomer(r.DB.QueryRow(ctx, `SELECT `+subCustomerColumns+` FROM sub_customers WHERE id=$1`, id))
}

// ListSubCustomers omits soft-deleted accounts.
func (r *CustomerRepository) ListSubCustomers(ctx context.Context, customerID uuid.UUID) ([]*models.SubCustomer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+subCustomerColumns+` FROM sub_customers
         WHERE customer_id=$1 AND status <> 'deleted'
         ORDER BY name, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-customers: %w", err)
	}
	defer rows.Close()

	var subs []*models.SubCustomer
	for rows.Next() {
		s, err := scanSubCustomer(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *CustomerRepository) UpdateSubCustomer(ctx context.Context, s *models.SubCustomer) error {
	return scanInto(r.DB.QueryRow(ctx,
		`UPDATE sub_customers SET name=$1, description=$2, updated_at=NOW()
         WHERE id=$3 AND status <> 'deleted'
         RETURNING `+subCustomerColumns,
		s.Name, s.Description, s.ID), s)
}

func scanInto(row rowScanner, s *models.SubCustomer) error {
	got, err := scanSubCustomer(row)
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// CloseSubCustomer marks the account inactive once its balance is settled.
func (r *CustomerRepository) CloseSubCustomer(ctx context.Context, id uuid.UUID) (*models.SubCustomer, error) {
	return r.retire(ctx, id, models.SubCustomerInactive, models.EventSubCustomerClosed)
}

// SoftDeleteSubCustomer is gated the same way as close.
func (r *CustomerRepository) SoftDeleteSubCustomer(ctx context.Context, id uuid.UUID) (*models.SubCustomer, error) {
	return r.retire(ctx, id, models.SubCustomerDeleted, models.EventSubCustomerClosed)
}

func (r *CustomerRepository) retire(ctx context.Context, id uuid.UUID, status, eventType string) (*models.SubCustomer, error) {
	var sub *models.SubCustomer
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		sub, err = scanSubCustomer(tx.QueryRow(ctx,
			`SELECT `+subCustomerColumns+` FROM sub_customers WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if sub.Status == models.SubCustomerDeleted {
			return fmt.Errorf("%w: sub-customer is deleted", ErrConflict)
		}

		scope := ledger.Scope{CustomerID: sub.CustomerID, SubCustomerID: &sub.ID}
		summary, err := ledger.NewCalculator(NewLedgerRepository(tx)).Balance(ctx, scope)
		if err != nil {
			return fmt.Errorf("failed to compute balance: %w", err)
		}
		if err := ledger.CanClose(summary); err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.Exec(ctx,
			`UPDATE sub_customers SET status=$1, closed_at=COALESCE(closed_at, $2), updated_at=$2 WHERE id=$3`,
			status, now, id); err != nil {
			return fmt.Errorf("failed to update sub-customer: %w", err)
		}
		sub.Status = status
		if sub.ClosedAt == nil {
			sub.ClosedAt = &now
		}
		sub.UpdatedAt = now

		return insertEvent(ctx, tx, "sub_customer", sub.ID, eventType,
			models.LedgerEventPayload{CustomerID: &sub.CustomerID, SubCustomerID: &sub.ID})
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// OpenSubCustomer reactivates a closed account.
func (r *CustomerRepository) OpenSubCustomer(ctx context.Context, id uuid.UUID) (*models.SubCustomer, error) {
	var sub *models.SubCustomer
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		sub, err = scanSubCustomer(tx.QueryRow(ctx,
			`UPDATE sub_customers SET status='active', closed_at=NULL, updated_at=NOW()
             WHERE id=$1 AND status <> 'deleted'
             RETURNING `+subCustomerColumns, id))
		if err != nil {
			return err
		}
		return insertEvent(ctx, tx, "sub_customer", sub.ID, models.EventSubCustomerOpened,
			models.LedgerEventPayload{CustomerID: &sub.CustomerID, SubCustomerID: &sub.ID})
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// checkWritable verifies the customer exists and, when given, that the
// sub-customer belongs to it and is open. The sub-customer row is share
// locked so a concurrent close waits for this transaction.
func checkWritable(ctx context.Context, tx DBTX, customerID uuid.UUID, subCustomerID *uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id=$1)`, customerID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check customer: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: customer", ErrNotFound)
	}
	if subCustomerID == nil {
		return nil
	}
	sub, err := scanSubCustomer(tx.QueryRow(ctx,
		`SELECT `+subCustomerColumns+` FROM sub_customers WHERE id=$1 FOR SHARE`, *subCustomerID))
	if err != nil {
		if err == ErrNotFound {
			return fmt.Errorf("%w: sub-customer", ErrNotFound)
		}
		return err
	}
	return ledger.EnsureWritable(sub, customerID)
}
