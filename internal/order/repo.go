package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/navarrete-shop/backend/internal/product"
)

var (
	ErrNotFound = errors.New("order not found")
)

type Repository interface {
	// Create persists the order with its lines and deducts stock for every
	// line in the same transaction. A line that cannot be covered rolls the
	// whole transaction back with a *product.StockError.
	Create(ctx context.Context, o *Order, lines []Line) error
	GetByID(ctx context.Context, id string) (*Order, []Line, error)
	GetLines(ctx context.Context, orderID string) ([]Line, error)
	List(ctx context.Context, limit, offset int) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	MarkRefunded(ctx context.Context, id, stripeRefundID string) error
	Delete(ctx context.Context, id string) (bool, error)
}

const selectCols = `id, customer_id, status, total_price::text, COALESCE(stripe_payment_intent_id,''), COALESCE(stripe_refund_id,''), created_at, updated_at`

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, o *Order, lines []Line) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (id, customer_id, status, total_price, stripe_payment_intent_id, created_at, updated_at)
    VALUES ($1,$2,$3,$4,NULLIF($5,''),NOW(),NOW())
  `, o.ID, o.CustomerID, o.Status, o.Total, o.StripePaymentIntentID); err != nil {
		return err
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_lines (id, order_id, product_id, quantity, price)
      VALUES ($1,$2,$3,$4,$5)
    `, l.ID, o.ID, l.ProductID, l.Quantity, l.Price); err != nil {
			return err
		}
		if err := product.DecrementStockTx(ctx, tx, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, []Line, error) {
	var o Order
	if err := r.db.QueryRow(ctx, `
    SELECT `+selectCols+`
    FROM orders WHERE id=$1
  `, id).Scan(&o.ID, &o.CustomerID, &o.Status, &o.Total, &o.StripePaymentIntentID, &o.StripeRefundID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, nil, ErrNotFound
	}
	lines, err := r.GetLines(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &o, lines, nil
}

func (r *PGRepo) GetLines(ctx context.Context, orderID string) ([]Line, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT id, order_id, product_id, quantity, price::text
    FROM order_lines WHERE order_id=$1
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.Price); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *PGRepo) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.Total, &o.StripePaymentIntentID, &o.StripeRefundID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Order, error) {
	limit, offset = clampPage(limit, offset)
	return r.list(ctx, `
    SELECT `+selectCols+`
    FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2
  `, limit, offset)
}

func (r *PGRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error) {
	limit, offset = clampPage(limit, offset)
	return r.list(ctx, `
    SELECT `+selectCols+`
    FROM orders WHERE customer_id=$1
    ORDER BY created_at DESC LIMIT $2 OFFSET $3
  `, customerID, limit, offset)
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
    UPDATE orders
    SET status = $2, updated_at = NOW()
    WHERE id = $1
  `, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the order and, via cascade, its lines. Stock is not
// restored; like refunds, removal is bookkeeping, not inventory return.
func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) MarkRefunded(ctx context.Context, id, stripeRefundID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
    UPDATE orders
    SET status = $2, stripe_refund_id = $3, updated_at = NOW()
    WHERE id = $1
  `, id, StatusRefunded, stripeRefundID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
