package repositories

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
)

type SaleRepository struct {
	DB *pgxpool.Pool
}

func NewSaleRepository(db *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{DB: db}
}

// CheckoutParams is a validated checkout. ClearCartOf, when set, empties
// that user's server cart in the same transaction.
type CheckoutParams struct {
	Lines          []models.CheckoutLine
	CustomerID     *uuid.UUID
	SubCustomerID  *uuid.UUID
	PaymentType    string
	PaidAmount     decimal.Decimal
	Note           string
	CreatedBy      *uuid.UUID
	IdempotencyKey string
	ClearCartOf    *uuid.UUID
}

const saleColumns = `id, customer_id, sub_customer_id, total_amount, paid_amount, payment_type, status, note,
	created_by, created_at, cancelled_at`

func scanSale(row rowScanner) (*models.Sale, error) {
	var s models.Sale
	err := row.Scan(&s.ID, &s.CustomerID, &s.SubCustomerID, &s.TotalAmount, &s.PaidAmount, &s.PaymentType,
		&s.Status, &s.Note, &s.CreatedBy, &s.CreatedAt, &s.CancelledAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &s, nil
}

const saleItemColumns = `id, sale_id, product_id, name, barcode, quantity, unit_price, total`

func scanSaleItem(row rowScanner) (*models.SaleItem, error) {
	var it models.SaleItem
	err := row.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Name, &it.Barcode, &it.Quantity, &it.UnitPrice, &it.Total)
	if err != nil {
		return nil, translateError(err)
	}
	return &it, nil
}

// Checkout writes a sale, its stock movements, debt, payment and outbox
// event atomically. A repeated idempotency key returns the first result.
func (r *SaleRepository) Checkout(ctx context.Context, p CheckoutParams) (*models.CheckoutResult, error) {
	var result *models.CheckoutResult
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var stored models.CheckoutResult
		replay, err := claimIdempotencyKey(ctx, tx, ScopeCheckout, p.IdempotencyKey, &stored)
		if err != nil {
			return err
		}
		if replay {
			stored.Replay = true
			result = &stored
			return nil
		}

		result, err = checkoutTx(ctx, tx, p)
		if err != nil {
			return err
		}
		if p.ClearCartOf != nil {
			if err := clearCart(ctx, tx, *p.ClearCartOf); err != nil {
				return err
			}
		}
		return storeIdempotencyKey(ctx, tx, ScopeCheckout, p.IdempotencyKey, http.StatusCreated, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func checkoutTx(ctx context.Context, tx DBTX, p CheckoutParams) (*models.CheckoutResult, error) {
	if p.CustomerID != nil {
		if err := checkWritable(ctx, tx, *p.CustomerID, p.SubCustomerID); err != nil {
			return nil, err
		}
	} else if p.SubCustomerID != nil {
		return nil, ledger.ErrCustomerRequired
	}

	lines, err := resolveLines(ctx, tx, p.Lines)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := lockProducts(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	items, total, err := ledger.PriceLines(lines, products)
	if err != nil {
		return nil, err
	}
	settlement, err := ledger.Settle(total, p.PaidAmount, p.PaymentType, p.CustomerID != nil)
	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		if err := adjustStock(ctx, tx, l.ProductID, -l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	sale := &models.Sale{
		ID:            uuid.New(),
		CustomerID:    p.CustomerID,
		SubCustomerID: p.SubCustomerID,
		TotalAmount:   total,
		PaidAmount:    settlement.Paid,
		PaymentType:   p.PaymentType,
		Status:        models.SaleStatusCompleted,
		Note:          p.Note,
		CreatedBy:     p.CreatedBy,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO sales(id, customer_id, sub_customer_id, total_amount, paid_amount, payment_type, status, note, created_by)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING created_at`,
		sale.ID, sale.CustomerID, sale.SubCustomerID, sale.TotalAmount, sale.PaidAmount, sale.PaymentType,
		sale.Status, sale.Note, sale.CreatedBy,
	).Scan(&sale.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", translateError(err))
	}

	for i := range items {
		items[i].ID = uuid.New()
		items[i].SaleID = sale.ID
		_, err := tx.Exec(ctx,
			`INSERT INTO sale_items(id, sale_id, product_id, name, barcode, quantity, unit_price, total)
             VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
			items[i].ID, sale.ID, items[i].ProductID, items[i].Name, items[i].Barcode, items[i].Quantity,
			items[i].UnitPrice, items[i].Total)
		if err != nil {
			return nil, fmt.Errorf("failed to insert sale item: %w", translateError(err))
		}
	}
	sale.Items = items

	result := &models.CheckoutResult{Sale: sale}
	if settlement.DebtAmount.IsPositive() {
		debt := &models.Debt{
			CustomerID:    *p.CustomerID,
			SubCustomerID: p.SubCustomerID,
			SaleID:        &sale.ID,
			Amount:        settlement.DebtAmount,
			Description:   saleDescription(items),
			Type:          models.DebtTypeSale,
		}
		if err := insertDebt(ctx, tx, debt); err != nil {
			return nil, err
		}
		result.Debt = debt

		if settlement.Paid.IsPositive() {
			payment := &models.CustomerPayment{
				CustomerID:    *p.CustomerID,
				SubCustomerID: p.SubCustomerID,
				DebtID:        &debt.ID,
				SaleID:        &sale.ID,
				Amount:        settlement.Paid,
				PaymentDate:   sale.CreatedAt,
				Type:          paymentMethodFor(p.PaymentType),
				Note:          "paid at checkout",
			}
			if err := insertPayment(ctx, tx, payment); err != nil {
				return nil, err
			}
			result.Payment = payment
		}
	}

	payload := models.LedgerEventPayload{
		CustomerID:    p.CustomerID,
		SubCustomerID: p.SubCustomerID,
		Amount:        total.String(),
		ProductIDs:    ids,
	}
	if err := insertEvent(ctx, tx, "sale", sale.ID, models.EventSaleCreated, payload); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveLines turns barcodes into product ids and merges repeated products.
func resolveLines(ctx context.Context, tx DBTX, lines []models.CheckoutLine) ([]ledger.Line, error) {
	var barcodes []string
	for _, l := range lines {
		if l.ProductID == nil {
			barcodes = append(barcodes, strings.TrimSpace(l.Barcode))
		}
	}
	byBarcode, err := resolveBarcodes(ctx, tx, barcodes)
	if err != nil {
		return nil, err
	}

	resolved := make([]ledger.Line, 0, len(lines))
	for _, l := range lines {
		if l.ProductID != nil {
			resolved = append(resolved, ledger.Line{ProductID: *l.ProductID, Quantity: l.Quantity})
			continue
		}
		id, ok := byBarcode[strings.TrimSpace(l.Barcode)]
		if !ok {
			return nil, fmt.Errorf("%w: barcode %s", ledger.ErrProductNotFound, l.Barcode)
		}
		resolved = append(resolved, ledger.Line{ProductID: id, Quantity: l.Quantity})
	}
	return ledger.MergeLines(resolved), nil
}

func saleDescription(items []models.SaleItem) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	desc := strings.Join(names, ", ")
	if len(desc) > 500 {
		desc = desc[:497] + "..."
	}
	return desc
}

// paymentMethodFor maps a sale payment type to the method of the payment
// taken at checkout. Partly paid credit sales are paid in cash.
func paymentMethodFor(paymentType string) string {
	if paymentType == models.PaymentTypeCard {
		return models.PaymentMethodCard
	}
	return models.PaymentMethodCash
}

// Get returns a sale with its items.
func (r *SaleRepository) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	sales, err := loadSales(ctx, r.DB, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	s, ok := sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *SaleRepository) List(ctx context.Context, f models.SaleFilter) ([]*models.Sale, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+saleColumns+` FROM sales
         WHERE ($1::uuid IS NULL OR customer_id=$1)
           AND ($2::timestamptz IS NULL OR created_at >= $2)
           AND ($3::timestamptz IS NULL OR created_at < $3)
           AND ($4 = '' OR status=$4)
         ORDER BY created_at DESC, id
         LIMIT $5 OFFSET $6`,
		f.CustomerID, f.From, f.To, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
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

// loadSales fetches sales with items, keyed by id.
func loadSales(ctx context.Context, db DBTX, ids []uuid.UUID) (map[uuid.UUID]*models.Sale, error) {
	rows, err := db.Query(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	sales, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Sale, error) {
		return scanSale(row)
	})
	if err != nil {
		return nil, err
	}
	if err := attachItems(ctx, db, sales); err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Sale, len(sales))
	for _, s := range sales {
		byID[s.ID] = s
	}
	return byID, nil
}

func attachItems(ctx context.Context, db DBTX, sales []*models.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(sales))
	byID := make(map[uuid.UUID]*models.Sale, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		byID[s.ID] = s
	}
	rows, err := db.Query(ctx,
		`SELECT `+saleItemColumns+` FROM sale_items WHERE sale_id = ANY($1) ORDER BY name, id`, ids)
	if err != nil {
		return fmt.Errorf("failed to load sale items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		it, err := scanSaleItem(rows)
		if err != nil {
			return err
		}
		if s, ok := byID[it.SaleID]; ok {
			s.Items = append(s.Items, *it)
		}
	}
	return rows.Err()
}

func getSaleItem(ctx context.Context, db DBTX, id uuid.UUID) (*models.SaleItem, error) {
	it, err := scanSaleItem(db.QueryRow(ctx, `SELECT `+saleItemColumns+` FROM sale_items WHERE id=$1`, id))
	if err == ErrNotFound {
		return nil, fmt.Errorf("%w: sale item", ErrNotFound)
	}
	return it, err
}

// Cancel voids a sale: stock returns, linked debts are cancelled and
// payments taken for it are marked refunded.
func (r *SaleRepository) Cancel(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale *models.Sale
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		sale, err = scanSale(tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if sale.Status == models.SaleStatusCancelled {
			return fmt.Errorf("%w: sale is already cancelled", ErrConflict)
		}
		if err := attachItems(ctx, tx, []*models.Sale{sale}); err != nil {
			return err
		}

		lines := make([]ledger.Line, 0, len(sale.Items))
		for _, it := range sale.Items {
			lines = append(lines, ledger.Line{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		lines = ledger.MergeLines(lines)
		ids := make([]uuid.UUID, len(lines))
		for i, l := range lines {
			ids[i] = l.ProductID
		}
		if _, err := lockProducts(ctx, tx, ids); err != nil {
			return err
		}
		for _, l := range lines {
			if err := adjustStock(ctx, tx, l.ProductID, l.Quantity); err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
		}
		// Refund restocks already returned some units; take those back out.
		rows, err := tx.Query(ctx,
			`SELECT rf.product_id, SUM(rf.quantity)::int
             FROM refunds rf JOIN debts d ON d.id = rf.debt_id
             WHERE d.sale_id=$1 AND rf.status='active' AND rf.restock AND rf.product_id IS NOT NULL
             GROUP BY rf.product_id`, id)
		if err != nil {
			return fmt.Errorf("failed to load restocked refunds: %w", err)
		}
		restocked := make(map[uuid.UUID]int)
		var productID uuid.UUID
		var qty int
		_, err = pgx.ForEachRow(rows, []any{&productID, &qty}, func() error {
			restocked[productID] = qty
			return nil
		})
		if err != nil {
			return err
		}
		for pid, q := range restocked {
			if err := adjustStock(ctx, tx, pid, -q); err != nil {
				return fmt.Errorf("failed to reconcile refunded stock: %w", err)
			}
		}

		if _, err := tx.Exec(ctx,
			`UPDATE sales SET status='cancelled', cancelled_at=NOW() WHERE id=$1`, id); err != nil {
			return fmt.Errorf("failed to cancel sale: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE debts SET status='cancelled', updated_at=NOW() WHERE sale_id=$1 AND status='active'`, id); err != nil {
			return fmt.Errorf("failed to cancel sale debts: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE customer_payments SET status='refunded' WHERE sale_id=$1 AND status='active'`, id); err != nil {
			return fmt.Errorf("failed to refund sale payments: %w", err)
		}
		sale.Status = models.SaleStatusCancelled

		payload := models.LedgerEventPayload{
			CustomerID:    sale.CustomerID,
			SubCustomerID: sale.SubCustomerID,
			Amount:        sale.TotalAmount.String(),
			ProductIDs:    ids,
		}
		return insertEvent(ctx, tx, "sale", sale.ID, models.EventSaleCancelled, payload)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}
