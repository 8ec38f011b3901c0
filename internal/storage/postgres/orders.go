package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SelwynIsLoading/kiosk-payments/internal/domain"
)

// OrderStore is the pgx adapter over the kiosk's relational order schema.
// The payment core only writes through it at completion time; the CRUD
// storefront owns the schema itself.
type OrderStore struct {
	pool *pgxpool.Pool
}

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	return pool, nil
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// MarkPaid records the payment. Idempotent: a second call for an order
// that is already paid reports alreadyPaid=true and writes nothing.
func (s *OrderStore) MarkPaid(ctx context.Context, orderKey, method string, amountPaid, change decimal.Decimal) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET is_paid = true,
			paid_at = now(),
			payment_method = $2,
			amount_paid = $3,
			change_due = $4
		WHERE order_number = $1 AND is_paid = false
		`, orderKey, method, amountPaid, change)
	if err != nil {
		return false, fmt.Errorf("mark paid: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	// No row updated: either the order is already paid or it is unknown.
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, orderKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("mark paid lookup: %w", err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return true, nil
}

// DecrementInventory subtracts each line item's quantity from on-hand
// stock, clamping at zero. Clamped items are reported as shortages, not
// errors: the sale already happened physically.
func (s *OrderStore) DecrementInventory(ctx context.Context, orderKey string) ([]domain.StockShortage, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("decrement inventory: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT p.id, p.name, i.quantity, p.quantity_on_hand
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		JOIN orders o ON o.id = i.order_id
		WHERE o.order_number = $1
		FOR UPDATE OF p
		`, orderKey)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	type line struct {
		productID int64
		name      string
		requested int
		onHand    int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.name, &l.requested, &l.onHand); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read product rows: %w", err)
	}

	var shortages []domain.StockShortage
	for _, l := range lines {
		if l.onHand < l.requested {
			shortages = append(shortages, domain.StockShortage{
				ProductName: l.name,
				Requested:   l.requested,
				OnHand:      l.onHand,
			})
		}
		_, err := tx.Exec(ctx, `
			UPDATE products
			SET quantity_on_hand = GREATEST(quantity_on_hand - $2, 0)
			WHERE id = $1
			`, l.productID, l.requested)
		if err != nil {
			return nil, fmt.Errorf("decrement product %d: %w", l.productID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit decrement: %w", err)
	}
	return shortages, nil
}

// ReceiptOrder loads the order snapshot a receipt is rendered from.
func (s *OrderStore) ReceiptOrder(ctx context.Context, orderKey string) (*domain.ReceiptOrder, error) {
	o := &domain.ReceiptOrder{OrderKey: orderKey}

	err := s.pool.QueryRow(ctx, `
		SELECT o.created_at, COALESCE(o.customer_name, ''), o.subtotal, o.tax, o.total
		FROM orders o
		WHERE o.order_number = $1
		`, orderKey).Scan(&o.OrderDate, &o.CustomerName, &o.SubTotal, &o.Tax, &o.Total)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.name, i.quantity, i.line_total
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		JOIN orders o ON o.id = i.order_id
		WHERE o.order_number = $1
		ORDER BY i.id
		`, orderKey)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.ReceiptItem
		if err := rows.Scan(&item.ProductName, &item.Quantity, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read order items: %w", err)
	}
	return o, nil
}
