package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const orderColumns = `id::text, number, COALESCE(user_id::text, ''), payment_method, promo_code,
       subtotal, discount, promo_discount, delivery_fee, handling_fee, total, shipping, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

// Create writes the order header and its lines in one transaction.
func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var userID *string
	if o.UserID != "" {
		userID = &o.UserID
	}
	q := `
INSERT INTO orders (number, user_id, payment_method, promo_code, subtotal, discount, promo_discount,
                    delivery_fee, handling_fee, total, shipping)
VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + orderColumns
	out, err := scanOrder(tx.QueryRow(ctx, q,
		o.Number,
		userID,
		o.PaymentMethod,
		o.PromoCode,
		o.Subtotal.String(),
		o.Discount.String(),
		o.PromoDiscount.String(),
		o.DeliveryFee.String(),
		o.HandlingFee.String(),
		o.Total.String(),
		shipping,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("order repo: insert", zap.String("number", o.Number), zap.Error(err))
		return nil, err
	}

	for i, l := range o.Lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_lines (order_id, product_id, title, size, color, qty, unit_price, position)
VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8)
`, out.ID, l.ProductID, l.Title, l.Size, l.Color, strconv.Itoa(l.Quantity), l.UnitPrice.String(), i); err != nil {
			r.logger.Error("order repo: insert line", zap.String("number", o.Number), zap.Int("position", i), zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	out.Lines = append([]domain.OrderLine(nil), o.Lines...)
	r.logger.Info("order repo: created", zap.String("number", out.Number), zap.Int("lines", len(out.Lines)))
	return out, nil
}

func (r *postgresRepo) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	byOrder, err := r.lines(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = byOrder[o.ID]
	return o, nil
}

// ListByUser returns the user's orders newest first, lines included. Lines
// for all orders are read with a single query.
func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1::uuid ORDER BY created_at DESC`
	result := make([]domain.Order, 0)
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		if isInvalidText(err) {
			return result, nil
		}
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		if isInvalidText(err) {
			return result, nil
		}
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]string, len(result))
	for i := range result {
		ids[i] = result[i].ID
	}
	byOrder, err := r.lines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Lines = byOrder[result[i].ID]
	}
	return result, nil
}

// lines loads the lines of the given orders keyed by order id, in position order.
func (r *postgresRepo) lines(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLine, error) {
	rows, err := r.pool.Query(ctx, `
SELECT order_id::text, product_id::text, title, size, color, qty, unit_price
FROM order_lines
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position ASC
`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderLine, len(orderIDs))
	for _, id := range orderIDs {
		out[id] = make([]domain.OrderLine, 0)
	}
	for rows.Next() {
		var (
			l                   domain.OrderLine
			orderID, qty, price string
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.Title, &l.Size, &l.Color, &qty, &price); err != nil {
			return nil, err
		}
		if l.Quantity, err = strconv.Atoi(qty); err != nil {
			return nil, fmt.Errorf("order %s: parse qty %q: %w", orderID, qty, err)
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("order %s: parse unit price %q: %w", orderID, price, err)
		}
		out[orderID] = append(out[orderID], l)
	}
	return out, rows.Err()
}

func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                                                  domain.Order
		subtotal, discount, promo, delivery, handling, tot string
		shipping                                           []byte
	)
	if err := row.Scan(
		&o.ID,
		&o.Number,
		&o.UserID,
		&o.PaymentMethod,
		&o.PromoCode,
		&subtotal,
		&discount,
		&promo,
		&delivery,
		&handling,
		&tot,
		&shipping,
		&o.CreatedAt,
	); err != nil {
		return nil, err
	}
	amounts := []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&o.Subtotal, subtotal},
		{&o.Discount, discount},
		{&o.PromoDiscount, promo},
		{&o.DeliveryFee, delivery},
		{&o.HandlingFee, handling},
		{&o.Total, tot},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.raw)
		if err != nil {
			return nil, err
		}
		*a.dst = d
	}
	if len(shipping) > 0 {
		if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
			return nil, err
		}
	}
	return &o, nil
}
