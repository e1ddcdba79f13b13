package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const userColumns = `id::text, username, email, password_hash, full_name, phone, address, city, postal,
       cart_items, wish_items, last_login, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	q := `
INSERT INTO users (username, email, password_hash, full_name, phone, address, city, postal, cart_items, wish_items)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(
		ctx,
		q,
		u.Username,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.FullName,
		u.Phone,
		u.Address,
		u.City,
		u.Postal,
		nonNil(u.CartItems),
		nonNil(u.WishItems),
	))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, strings.TrimSpace(email)))
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, username))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1::uuid LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

// Update writes only the fields set on patch and returns the merged record.
func (r *postgresRepo) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	sets := make([]string, 0, 11)
	args := make([]any, 0, 12)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Email != nil {
		add("email", strings.ToLower(*patch.Email))
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.City != nil {
		add("city", *patch.City)
	}
	if patch.Postal != nil {
		add("postal", *patch.Postal)
	}
	if patch.CartItems != nil {
		add("cart_items", patch.CartItems)
	}
	if patch.WishItems != nil {
		add("wish_items", patch.WishItems)
	}
	if patch.LastLogin != nil {
		add("last_login", *patch.LastLogin)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	q := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d::uuid RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, q, args...))
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Phone,
		&u.Address,
		&u.City,
		&u.Postal,
		&u.CartItems,
		&u.WishItems,
		&u.LastLogin,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pgErr.ConstraintName)
			case "22P02":
				return nil, domain.ErrNotFound
			}
		}
		r.logger.Error("user repo: scan", zap.Error(err))
		return nil, err
	}
	u.CartItems = nonNil(u.CartItems)
	u.WishItems = nonNil(u.WishItems)
	return &u, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
