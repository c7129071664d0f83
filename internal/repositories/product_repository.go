package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-backend/internal/models"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: db}
}

const productColumns = `id, name, COALESCE(barcode, ''), category, purchase_price, sale_price, stock,
	min_stock, unit, vendor_id, is_active, created_at, updated_at`

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.Category, &p.PurchasePrice, &p.SalePrice, &p.Stock,
		&p.MinStock, &p.Unit, &p.VendorID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// nullableBarcode stores empty barcodes as NULL so the unique index ignores them.
func nullableBarcode(b string) *string {
	b = strings.TrimSpace(b)
	if b == "" {
		return nil
	}
	return &b
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	p.ID = uuid.New()
	p.IsActive = true
	err := r.DB.QueryRow(ctx,
		`INSERT INTO products(id, name, barcode, category, purchase_price, sale_price, stock, min_stock, unit, vendor_id, is_active)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
         RETURNING created_at, updated_at`,
		p.ID, p.Name, nullableBarcode(p.Barcode), p.Category, p.PurchasePrice, p.SalePrice, p.Stock,
		p.MinStock, p.Unit, p.VendorID, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return translateError(err)
}

func (r *ProductRepository) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE barcode=$1 AND is_active`, strings.TrimSpace(barcode)))
}

// List returns active products matching q on name, barcode or category.
func (r *ProductRepository) List(ctx context.Context, q string) ([]*models.Product, error) {
	return r.query(ctx,
		`SELECT `+productColumns+` FROM products
         WHERE is_active
           AND ($1 = '' OR name ILIKE $2 OR barcode = $1 OR category ILIKE $2)
         ORDER BY name, id`, q, likePattern(q))
}

func (r *ProductRepository) ListLowStock(ctx context.Context) ([]*models.Product, error) {
	return r.query(ctx,
		`SELECT `+productColumns+` FROM products
         WHERE is_active AND stock <= min_stock
         ORDER BY stock, name`)
}

// GetMany returns the products with the given ids keyed by id.
func (r *ProductRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	products, err := r.query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func (r *ProductRepository) query(ctx context.Context, sql string, args ...any) ([]*models.Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Update applies a partial update and returns the stored product. Stock
// changes emit a stock event.
func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Barcode != nil {
		add("barcode", nullableBarcode(*req.Barcode))
	}
	if req.Category != nil {
		add("category", *req.Category)
	}
	if req.PurchasePrice != nil {
		add("purchase_price", *req.PurchasePrice)
	}
	if req.SalePrice != nil {
		add("sale_price", *req.SalePrice)
	}
	if req.Stock != nil {
		add("stock", *req.Stock)
	}
	if req.MinStock != nil {
		add("min_stock", *req.MinStock)
	}
	if req.Unit != nil {
		add("unit", *req.Unit)
	}
	if req.VendorID != nil {
		add("vendor_id", *req.VendorID)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	args = append(args, id)
	sql := `UPDATE products SET ` + strings.Join(sets, ", ") + `, updated_at=NOW()
         WHERE id=$` + fmt.Sprint(len(args)) + ` AND is_active
         RETURNING ` + productColumns

	var product *models.Product
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		product, err = scanProduct(tx.QueryRow(ctx, sql, args...))
		if err != nil {
			return err
		}
		if req.Stock == nil {
			return nil
		}
		return insertEvent(ctx, tx, "product", product.ID, models.EventStockChanged,
			models.LedgerEventPayload{ProductIDs: []uuid.UUID{product.ID}})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Delete hides a product from sale; history keeps pointing at it.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.DB.Exec(ctx,
		`UPDATE products SET is_active=FALSE, barcode=NULL, updated_at=NOW() WHERE id=$1 AND is_active`, id))
}

func (r *ProductRepository) CountLowStock(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE is_active AND stock <= min_stock`).Scan(&n)
	return n, err
}

// lockProducts locks the given rows in id order and returns them keyed by id.
func lockProducts(ctx context.Context, tx DBTX, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	rows, err := tx.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	products := make(map[uuid.UUID]*models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

// adjustStock adds delta to a product's stock. A result below zero violates
// the stock check and comes back as ErrConflict.
func adjustStock(ctx context.Context, tx DBTX, productID uuid.UUID, delta int) error {
	return expectOne(tx.Exec(ctx,
		`UPDATE products SET stock = stock + $1, updated_at=NOW() WHERE id=$2`, delta, productID))
}

// resolveBarcodes maps barcodes to active product ids.
func resolveBarcodes(ctx context.Context, tx DBTX, barcodes []string) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(barcodes))
	if len(barcodes) == 0 {
		return ids, nil
	}
	rows, err := tx.Query(ctx, `SELECT barcode, id FROM products WHERE barcode = ANY($1) AND is_active`, barcodes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve barcodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var id uuid.UUID
		if err := rows.Scan(&code, &id); err != nil {
			return nil, err
		}
		ids[code] = id
	}
	return ids, rows.Err()
}
