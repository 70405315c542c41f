// Package product provides the repository interface and PostgreSQL implementation for managing catalog products.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("product not found")
)

// StockError reports which product could not cover the requested quantity.
type StockError struct {
	ProductID string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

type Query struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	Update(ctx context.Context, p *Product, updatePrice, updateStock bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

const selectCols = `id, name, description, price::text, stock_quantity, COALESCE(seller_id,''), COALESCE(image_url,''), COALESCE(stripe_product_id,''), COALESCE(stripe_price_id,''), created_at, updated_at`

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, description, price, stock_quantity, seller_id, image_url, stripe_product_id, stripe_price_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,''),NULLIF($8,''),NULLIF($9,''),NOW(),NOW())
	`, p.ID, p.Name, p.Description, p.Price, p.StockQuantity, p.SellerID, p.ImageURL, p.StripeProductID, p.StripePriceID)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT `+selectCols+`
		FROM products WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.SellerID, &p.ImageURL, &p.StripeProductID, &p.StripePriceID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	search := strings.TrimSpace(q.Q)

	rows, err := r.db.Query(ctx, `
		SELECT `+selectCols+`
		FROM products
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.SellerID, &p.ImageURL, &p.StripeProductID, &p.StripePriceID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies a partial update. Text columns keep their value when the
// incoming field is empty; price and stock change only when their flag is set,
// so an omitted stock_quantity never resets stock to zero.
func (r *PGRepo) Update(ctx context.Context, p *Product, updatePrice, updateStock bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	price := p.Price
	if !updatePrice {
		price = "0"
	}
	_, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = COALESCE(NULLIF($2,''), name),
		    description = COALESCE(NULLIF($3,''), description),
		    price = CASE WHEN $4 THEN $5::numeric ELSE price END,
		    stock_quantity = CASE WHEN $6 THEN $7 ELSE stock_quantity END,
		    image_url = COALESCE(NULLIF($8,''), image_url),
		    updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, updatePrice, price, updateStock, p.StockQuantity, p.ImageURL)
	return err
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// DecrementStockTx performs the conditional stock deduction inside the caller's
// transaction. The WHERE guard makes the check-and-decrement a single statement,
// so two concurrent orders can never both take the last unit.
func DecrementStockTx(ctx context.Context, tx pgx.Tx, productID string, qty int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &StockError{ProductID: productID}
	}
	return nil
}
