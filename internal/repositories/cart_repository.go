package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pos-backend/internal/models"
)

type CartRepository struct {
	DB *pgxpool.Pool
}

func NewCartRepository(db *pgxpool.Pool) *CartRepository {
	return &CartRepository{DB: db}
}

// Get returns the user's cart with live product data. A user without a
// saved cart gets an empty one.
func (r *CartRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID, Items: []models.CartItem{}, Total: decimal.Zero}
	err := r.DB.QueryRow(ctx,
		`SELECT customer_id, sub_customer_id, updated_at FROM carts WHERE user_id=$1`, userID,
	).Scan(&cart.CustomerID, &cart.SubCustomerID, &cart.UpdatedAt)
	if err != nil {
		if translateError(err) == ErrNotFound {
			return cart, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	rows, err := r.DB.Query(ctx,
		`SELECT ci.product_id, ci.quantity, p.name, COALESCE(p.barcode, ''), p.sale_price, p.stock
         FROM cart_items ci JOIN products p ON p.id = ci.product_id
         WHERE ci.user_id=$1
         ORDER BY p.name, p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CartItem, error) {
		var it models.CartItem
		err := row.Scan(&it.ProductID, &it.Quantity, &it.Name, &it.Barcode, &it.UnitPrice, &it.Stock)
		it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		return it, err
	})
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		cart.Total = cart.Total.Add(it.LineTotal)
	}
	cart.Items = append(cart.Items, items...)
	return cart, nil
}

// Save replaces the user's cart. Repeated products are summed.
func (r *CartRepository) Save(ctx context.Context, userID uuid.UUID, req *models.SaveCartRequest) error {
	qty := make(map[uuid.UUID]int, len(req.Items))
	var ids []uuid.UUID
	for _, it := range req.Items {
		if _, seen := qty[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		qty[it.ProductID] += it.Quantity
	}

	return inTx(ctx, r.DB, func(tx pgx.Tx) error {
		if req.CustomerID != nil {
			if err := checkWritable(ctx, tx, *req.CustomerID, req.SubCustomerID); err != nil {
				return err
			}
		}
		if len(ids) > 0 {
			var found int
			if err := tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM products WHERE id = ANY($1) AND is_active`, ids).Scan(&found); err != nil {
				return fmt.Errorf("failed to check products: %w", err)
			}
			if found != len(ids) {
				return fmt.Errorf("%w: product", ErrNotFound)
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO carts(user_id, customer_id, sub_customer_id, updated_at)
             VALUES($1, $2, $3, $4)
             ON CONFLICT (user_id) DO UPDATE
             SET customer_id=EXCLUDED.customer_id, sub_customer_id=EXCLUDED.sub_customer_id, updated_at=EXCLUDED.updated_at`,
			userID, req.CustomerID, req.SubCustomerID, time.Now()); err != nil {
			return fmt.Errorf("failed to save cart: %w", translateError(err))
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID); err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}

		batch := &pgx.Batch{}
		for _, id := range ids {
			batch.Queue(`INSERT INTO cart_items(user_id, product_id, quantity) VALUES($1, $2, $3)`, userID, id, qty[id])
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save cart items: %w", translateError(err))
		}
		return nil
	})
}

func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return clearCart(ctx, r.DB, userID)
}

func clearCart(ctx context.Context, tx DBTX, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
