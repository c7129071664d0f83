package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-backend/internal/models"
)

// ReportRepository runs the read-only aggregates behind the dashboard and
// the exports. Balance totals never come from here.
type ReportRepository struct {
	DB *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{DB: db}
}

// SalesTotals counts completed sales in [from, to).
func (r *ReportRepository) SalesTotals(ctx context.Context, from, to time.Time) (models.SalesTotals, error) {
	var t models.SalesTotals
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
         FROM sales
         WHERE status='completed' AND created_at >= $1 AND created_at < $2`,
		from, to).Scan(&t.Count, &t.Total)
	if err != nil {
		return t, fmt.Errorf("failed to sum sales: %w", err)
	}
	return t, nil
}

// TopProducts ranks products by quantity sold since from.
func (r *ReportRepository) TopProducts(ctx context.Context, from time.Time, limit int) ([]models.TopProduct, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT si.product_id, MAX(si.name), SUM(si.quantity)::int, SUM(si.total)
         FROM sale_items si JOIN sales s ON s.id = si.sale_id
         WHERE s.status='completed' AND s.created_at >= $1
         GROUP BY si.product_id
         ORDER BY SUM(si.quantity) DESC, MAX(si.name)
         LIMIT $2`, from, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TopProduct, error) {
		var p models.TopProduct
		err := row.Scan(&p.ProductID, &p.Name, &p.Quantity, &p.Revenue)
		return p, err
	})
}

// SalesBetween returns sales of any status in [from, to) with their items,
// oldest first.
func (r *ReportRepository) SalesBetween(ctx context.Context, from, to time.Time) ([]*models.Sale, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+saleColumns+` FROM sales
         WHERE created_at >= $1 AND created_at < $2
         ORDER BY created_at, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	sales, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Sale, error) {
		return scanSale(row)
	})
	if err != nil {
		return nil, err
	}
	if err := attachItems(ctx, r.DB, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// ActivePayables loads every active payable and vendor payment.
func (r *ReportRepository) ActivePayables(ctx context.Context) ([]*models.MyDebt, []*models.MyPayment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+myDebtColumns+` FROM my_debts WHERE status='active' ORDER BY created_at, id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load payables: %w", err)
	}
	debts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.MyDebt, error) {
		return scanMyDebt(row)
	})
	if err != nil {
		return nil, nil, err
	}
	rows, err = r.DB.Query(ctx,
		`SELECT `+myPaymentColumns+` FROM my_payments WHERE status='active' ORDER BY payment_date, id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load vendor payments: %w", err)
	}
	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.MyPayment, error) {
		return scanMyPayment(row)
	})
	if err != nil {
		return nil, nil, err
	}
	return debts, payments, nil
}
