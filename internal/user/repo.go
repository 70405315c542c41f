package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrAlreadyExist = errors.New("user already exists")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetStripeCustomer(ctx context.Context, id, stripeCustomerID string) error
	SetStripeAccount(ctx context.Context, id, stripeAccountID string) error
	SetSubscription(ctx context.Context, id, stripeSubscriptionID string) error
	Delete(ctx context.Context, id string) (bool, error)
}

const selectCols = `id, username, email, role, password_hash, COALESCE(stripe_customer_id,''), COALESCE(stripe_account_id,''), COALESCE(stripe_subscription_id,''), created_at, updated_at`

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, email, role, password_hash, stripe_customer_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NOW(),NOW())
	`, u.ID, u.Username, u.Email, u.Role, u.PasswordHash, u.StripeCustomerID)
	if err != nil {
		// UNIQUE on username/email
		return ErrAlreadyExist
	}
	return nil
}

func (r *PGRepo) scanOne(ctx context.Context, query, arg string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var u User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.Role, &u.PasswordHash,
		&u.StripeCustomerID, &u.StripeAccountID, &u.StripeSubscriptionID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+selectCols+` FROM users WHERE id=$1`, id)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+selectCols+` FROM users WHERE email=$1`, email)
}

func (r *PGRepo) setColumn(ctx context.Context, query, id, value string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, query, id, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) SetStripeCustomer(ctx context.Context, id, stripeCustomerID string) error {
	return r.setColumn(ctx, `UPDATE users SET stripe_customer_id=NULLIF($2,''), updated_at=NOW() WHERE id=$1`, id, stripeCustomerID)
}

func (r *PGRepo) SetStripeAccount(ctx context.Context, id, stripeAccountID string) error {
	return r.setColumn(ctx, `UPDATE users SET stripe_account_id=NULLIF($2,''), updated_at=NOW() WHERE id=$1`, id, stripeAccountID)
}

func (r *PGRepo) SetSubscription(ctx context.Context, id, stripeSubscriptionID string) error {
	return r.setColumn(ctx, `UPDATE users SET stripe_subscription_id=NULLIF($2,''), updated_at=NOW() WHERE id=$1`, id, stripeSubscriptionID)
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
