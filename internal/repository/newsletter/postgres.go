package newsletter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*Subscription, error) {
	const q = `
SELECT email, created_at
FROM newsletter_subscriptions
WHERE email = $1
`
	var s Subscription
	err := r.pool.QueryRow(ctx, q, email).Scan(&s.Email, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) Create(ctx context.Context, email string) (*Subscription, error) {
	const q = `
INSERT INTO newsletter_subscriptions (email)
VALUES ($1)
RETURNING email, created_at
`
	var out Subscription
	err := r.pool.QueryRow(ctx, q, email).Scan(&out.Email, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &out, nil
}
