package repositories

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pos-backend/internal/models"
)

// PurchaseRepository owns the payable side: purchase orders, payables to
// vendors and vendor payments.
type PurchaseRepository struct {
	DB *pgxpool.Pool
}

func NewPurchaseRepository(db *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{DB: db}
}

type PurchaseParams struct {
	VendorID       uuid.UUID
	Items          []models.PurchaseLine
	PaidAmount     decimal.Decimal
	PaymentType    string
	Note           string
	CreatedBy      *uuid.UUID
	IdempotencyKey string
}

const purchaseOrderColumns = `id, vendor_id, total_amount, status, note, created_by, created_at`

func scanPurchaseOrder(row rowScanner) (*models.PurchaseOrder, error) {
	var o models.PurchaseOrder
	err := row.Scan(&o.ID, &o.VendorID, &o.TotalAmount, &o.Status, &o.Note, &o.CreatedBy, &o.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &o, nil
}

const myDebtColumns = `id, vendor_id, purchase_order_id, amount, description, status, created_at, updated_at`

func scanMyDebt(row rowScanner) (*models.MyDebt, error) {
	var d models.MyDebt
	err := row.Scan(&d.ID, &d.VendorID, &d.PurchaseOrderID, &d.Amount, &d.Description, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &d, nil
}

const myPaymentColumns = `id, vendor_id, my_debt_id, amount, payment_date, type, status, note, created_at`

func scanMyPayment(row rowScanner) (*models.MyPayment, error) {
	var p models.MyPayment
	err := row.Scan(&p.ID, &p.VendorID, &p.MyDebtID, &p.Amount, &p.PaymentDate, &p.Type, &p.Status, &p.Note, &p.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// CreatePurchaseOrder receives stock from a vendor and books what is still
// owed, all in one transaction.
func (r *PurchaseRepository) CreatePurchaseOrder(ctx context.Context, p PurchaseParams) (*models.PurchaseOrderResult, error) {
	var result *models.PurchaseOrderResult
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var stored models.PurchaseOrderResult
		replay, err := claimIdempotencyKey(ctx, tx, ScopePurchaseOrder, p.IdempotencyKey, &stored)
		if err != nil {
			return err
		}
		if replay {
			stored.Replay = true
			result = &stored
			return nil
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vendors WHERE id=$1)`, p.VendorID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check vendor: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: vendor", ErrNotFound)
		}

		items := mergePurchaseLines(p.Items)
		ids := make([]uuid.UUID, len(items))
		for i, it := range items {
			ids[i] = it.ProductID
		}
		products, err := lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}

		order := &models.PurchaseOrder{
			ID:          uuid.New(),
			VendorID:    p.VendorID,
			TotalAmount: decimal.Zero,
			Status:      models.PurchaseStatusReceived,
			Note:        p.Note,
			CreatedBy:   p.CreatedBy,
		}
		for _, it := range items {
			if _, ok := products[it.ProductID]; !ok {
				return fmt.Errorf("%w: product %s", ErrNotFound, it.ProductID)
			}
			lineTotal := it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity)))
			order.TotalAmount = order.TotalAmount.Add(lineTotal)
			order.Items = append(order.Items, models.PurchaseOrderItem{
				ID:              uuid.New(),
				PurchaseOrderID: order.ID,
				ProductID:       it.ProductID,
				Quantity:        it.Quantity,
				UnitCost:        it.UnitCost,
				Total:           lineTotal,
			})
		}
		if p.PaidAmount.GreaterThan(order.TotalAmount) {
			return fmt.Errorf("%w: paid amount exceeds order total", ErrConflict)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO purchase_orders(id, vendor_id, total_amount, status, note, created_by)
             VALUES($1, $2, $3, $4, $5, $6)
             RETURNING created_at`,
			order.ID, order.VendorID, order.TotalAmount, order.Status, order.Note, order.CreatedBy,
		).Scan(&order.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert purchase order: %w", translateError(err))
		}
		for _, it := range order.Items {
			if _, err := tx.Exec(ctx,
				`INSERT INTO purchase_order_items(id, purchase_order_id, product_id, quantity, unit_cost, total)
                 VALUES($1, $2, $3, $4, $5, $6)`,
				it.ID, order.ID, it.ProductID, it.Quantity, it.UnitCost, it.Total); err != nil {
				return fmt.Errorf("failed to insert purchase order item: %w", translateError(err))
			}
			if _, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock + $1, purchase_price=$2, updated_at=NOW() WHERE id=$3`,
				it.Quantity, it.UnitCost, it.ProductID); err != nil {
				return fmt.Errorf("failed to receive stock: %w", err)
			}
		}

		result = &models.PurchaseOrderResult{Order: order}
		if order.TotalAmount.GreaterThan(p.PaidAmount) {
			debt := &models.MyDebt{
				VendorID:        p.VendorID,
				PurchaseOrderID: &order.ID,
				Amount:          order.TotalAmount,
				Description:     "purchase order " + order.ID.String()[:8],
			}
			if err := insertMyDebt(ctx, tx, debt); err != nil {
				return err
			}
			result.MyDebt = debt
		}
		if p.PaidAmount.IsPositive() {
			payment := &models.MyPayment{
				VendorID:    p.VendorID,
				Amount:      p.PaidAmount,
				PaymentDate: order.CreatedAt,
				Type:        p.PaymentType,
				Note:        "paid on receipt",
			}
			if result.MyDebt != nil {
				payment.MyDebtID = &result.MyDebt.ID
			}
			if err := insertMyPayment(ctx, tx, payment); err != nil {
				return err
			}
			result.Payment = payment
		}

		payload := models.LedgerEventPayload{VendorID: &p.VendorID, Amount: order.TotalAmount.String(), ProductIDs: ids}
		if err := insertEvent(ctx, tx, "purchase_order", order.ID, models.EventPurchaseOrderCreated, payload); err != nil {
			return err
		}
		return storeIdempotencyKey(ctx, tx, ScopePurchaseOrder, p.IdempotencyKey, http.StatusCreated, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mergePurchaseLines sums repeated products and orders by id. The last unit
// cost given for a product wins.
func mergePurchaseLines(lines []models.PurchaseLine) []models.PurchaseLine {
	byID := make(map[uuid.UUID]*models.PurchaseLine, len(lines))
	var merged []models.PurchaseLine
	for _, l := range lines {
		if m, ok := byID[l.ProductID]; ok {
			m.Quantity += l.Quantity
			m.UnitCost = l.UnitCost
			continue
		}
		cp := l
		byID[l.ProductID] = &cp
	}
	for _, l := range byID {
		merged = append(merged, *l)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID.String() < merged[j].ProductID.String()
	})
	return merged
}

func (r *PurchaseRepository) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	order, err := scanPurchaseOrder(r.DB.QueryRow(ctx,
		`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.Query(ctx,
		`SELECT id, purchase_order_id, product_id, quantity, unit_cost, total
         FROM purchase_order_items WHERE purchase_order_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PurchaseOrderItem, error) {
		var it models.PurchaseOrderItem
		err := row.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.Quantity, &it.UnitCost, &it.Total)
		return it, err
	})
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *PurchaseRepository) ListPurchaseOrders(ctx context.Context, vendorID *uuid.UUID) ([]*models.PurchaseOrder, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+purchaseOrderColumns+` FROM purchase_orders
         WHERE ($1::uuid IS NULL OR vendor_id=$1)
         ORDER BY created_at DESC, id`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.PurchaseOrder, error) {
		return scanPurchaseOrder(row)
	})
}

func insertMyDebt(ctx context.Context, tx DBTX, d *models.MyDebt) error {
	d.ID = uuid.New()
	d.Status = models.DebtStatusActive
	err := tx.QueryRow(ctx,
		`INSERT INTO my_debts(id, vendor_id, purchase_order_id, amount, description, status)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING created_at, updated_at`,
		d.ID, d.VendorID, d.PurchaseOrderID, d.Amount, d.Description, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payable: %w", translateError(err))
	}
	return nil
}

func insertMyPayment(ctx context.Context, tx DBTX, p *models.MyPayment) error {
	p.ID = uuid.New()
	p.Status = models.PaymentStatusActive
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO my_payments(id, vendor_id, my_debt_id, amount, payment_date, type, status, note)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING created_at`,
		p.ID, p.VendorID, p.MyDebtID, p.Amount, p.PaymentDate, p.Type, p.Status, p.Note,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert vendor payment: %w", translateError(err))
	}
	return nil
}

func (r *PurchaseRepository) CreateMyDebt(ctx context.Context, d *models.MyDebt) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := insertMyDebt(ctx, tx, d); err != nil {
			return err
		}
		return insertEvent(ctx, tx, "my_debt", d.ID, models.EventPayableCreated,
			models.LedgerEventPayload{VendorID: &d.VendorID, Amount: d.Amount.String()})
	})
}

func (r *PurchaseRepository) GetMyDebt(ctx context.Context, id uuid.UUID) (*models.MyDebt, error) {
	return scanMyDebt(r.DB.QueryRow(ctx, `SELECT `+myDebtColumns+` FROM my_debts WHERE id=$1`, id))
}

func (r *PurchaseRepository) UpdateMyDebt(ctx context.Context, id uuid.UUID, description string) error {
	return expectOne(r.DB.Exec(ctx,
		`UPDATE my_debts SET description=$1, updated_at=NOW() WHERE id=$2`, description, id))
}

// ListMyDebts returns payables oldest first, optionally for one vendor.
func (r *PurchaseRepository) ListMyDebts(ctx context.Context, vendorID *uuid.UUID) ([]*models.MyDebt, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+myDebtColumns+` FROM my_debts
         WHERE ($1::uuid IS NULL OR vendor_id=$1)
         ORDER BY created_at, id`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payables: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.MyDebt, error) {
		return scanMyDebt(row)
	})
}

// CreateMyPayment records a payment to a vendor. A linked payable must be
// active and owed to the same vendor.
func (r *PurchaseRepository) CreateMyPayment(ctx context.Context, p *models.MyPayment) error {
	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vendors WHERE id=$1)`, p.VendorID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check vendor: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: vendor", ErrNotFound)
		}
		if p.MyDebtID != nil {
			d, err := scanMyDebt(tx.QueryRow(ctx, `SELECT `+myDebtColumns+` FROM my_debts WHERE id=$1`, *p.MyDebtID))
			if err != nil {
				return err
			}
			if d.VendorID != p.VendorID {
				return fmt.Errorf("%w: payable belongs to another vendor", ErrInvalidReference)
			}
			if d.Status != models.DebtStatusActive {
				return fmt.Errorf("%w: payable is %s", ErrConflict, d.Status)
			}
		}
		if err := insertMyPayment(ctx, tx, p); err != nil {
			return err
		}
		return insertEvent(ctx, tx, "my_payment", p.ID, models.EventVendorPaymentMade,
			models.LedgerEventPayload{VendorID: &p.VendorID, Amount: p.Amount.String()})
	})
}

func (r *PurchaseRepository) ListMyPayments(ctx context.Context, vendorID *uuid.UUID) ([]*models.MyPayment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+myPaymentColumns+` FROM my_payments
         WHERE ($1::uuid IS NULL OR vendor_id=$1)
         ORDER BY payment_date DESC, id`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor payments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.MyPayment, error) {
		return scanMyPayment(row)
	})
}
