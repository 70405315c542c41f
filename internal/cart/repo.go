package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("cart not found")

type Repository interface {
	GetByID(ctx context.Context, id string) (*Cart, error)
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	UpsertForUser(ctx context.Context, userID string) (*Cart, error)
	UpsertLine(ctx context.Context, cartID, productID string, qty int) (*Line, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) loadLines(ctx context.Context, c *Cart) error {
	rows, err := r.db.Query(ctx, `
		SELECT id, cart_id, product_id, quantity
		FROM cart_lines WHERE cart_id=$1
		ORDER BY id
	`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.Lines = []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.Quantity); err != nil {
			return err
		}
		c.Lines = append(c.Lines, l)
	}
	return rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(user_id,''), created_at, updated_at
		FROM carts WHERE id=$1
	`, id).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	if err := r.loadLines(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(user_id,''), created_at, updated_at
		FROM carts WHERE user_id=$1
	`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	if err := r.loadLines(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) Create(ctx context.Context, c *Cart) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, NULLIF($2,''), NOW(), NOW())
		RETURNING created_at, updated_at
	`, c.ID, c.UserID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// UpsertForUser returns the user's cart, creating it on first use. Cart
// mutations per identity are low-contention, the ON CONFLICT keeps the rare
// concurrent first-add safe anyway.
func (r *PGRepo) UpsertForUser(ctx context.Context, userID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Cart
	err := r.db.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, COALESCE(user_id,''), created_at, updated_at
	`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) UpsertLine(ctx context.Context, cartID, productID string, qty int) (*Line, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	l := Line{CartID: cartID, ProductID: productID}
	err := r.db.QueryRow(ctx, `
		INSERT INTO cart_lines (id, cart_id, product_id, quantity)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING id, quantity
	`, cartID, productID, qty).Scan(&l.ID, &l.Quantity)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
