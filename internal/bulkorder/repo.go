package bulkorder

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("bulk order not found")

type Repository interface {
	Create(ctx context.Context, b *BulkOrder) error
	GetByID(ctx context.Context, id string) (*BulkOrder, error)
	List(ctx context.Context, limit, offset int) ([]BulkOrder, error)
	UpdateStatus(ctx context.Context, id string, status Status, paymentLink string) error
}

const selectCols = `id, customer_id, details, amount::text, status, COALESCE(payment_link,''), created_at, updated_at`

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, b *BulkOrder) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO bulk_orders (id, customer_id, details, amount, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
	`, b.ID, b.CustomerID, b.Details, b.Amount, b.Status)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*BulkOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b BulkOrder
	err := r.db.QueryRow(ctx, `
		SELECT `+selectCols+` FROM bulk_orders WHERE id=$1
	`, id).Scan(&b.ID, &b.CustomerID, &b.Details, &b.Amount, &b.Status, &b.PaymentLink, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]BulkOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+selectCols+` FROM bulk_orders
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BulkOrder
	for rows.Next() {
		var b BulkOrder
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.Details, &b.Amount, &b.Status, &b.PaymentLink, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status, paymentLink string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE bulk_orders
		SET status = $2, payment_link = COALESCE(NULLIF($3,''), payment_link), updated_at = NOW()
		WHERE id = $1
	`, id, status, paymentLink)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
