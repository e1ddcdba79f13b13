package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const productColumns = `id::text, store_id, title, gender, type, price, COALESCE(discount, ''), COALESCE(disc_price, ''),
       qty, colors, sizes, image, images, details, tags, rate, reviews, is_new, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	where := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.Type != "" {
		add("lower(type) = lower($%d)", f.Type)
	}
	if f.Gender != "" {
		add("lower(gender) = lower($%d)", f.Gender)
	}
	if f.Search != "" {
		add("title ILIKE '%%' || $%d || '%%'", f.Search)
	}
	if f.Tag != "" {
		add("$%d = ANY(tags)", f.Tag)
	}
	if f.NewOnly {
		where = append(where, "is_new")
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	switch f.Sort {
	case domain.SortTopSelling:
		q += " ORDER BY reviews DESC, created_at DESC"
	case domain.SortPriceAsc:
		q += " ORDER BY price::numeric ASC, created_at DESC"
	default:
		q += " ORDER BY created_at DESC"
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("product repo: list", zap.Any("filter", f), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		p, err := r.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.String("type", f.Type), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1::uuid`
	return r.getOne(ctx, q, id)
}

func (r *postgresRepo) GetByStoreID(ctx context.Context, storeID string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE store_id = $1`
	return r.getOne(ctx, q, storeID)
}

func (r *postgresRepo) getOne(ctx context.Context, q, id string) (*domain.Product, error) {
	p, err := r.scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			r.logger.Debug("product repo: get not found", zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// isInvalidText reports a value Postgres could not parse, such as a storefront
// id passed where a uuid is expected.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// Upsert inserts or replaces a product keyed by its storefront id.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (store_id, title, gender, type, price, discount, disc_price, qty, colors, sizes,
                      image, images, details, tags, rate, reviews, is_new)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (store_id) DO UPDATE SET
    title = EXCLUDED.title,
    gender = EXCLUDED.gender,
    type = EXCLUDED.type,
    price = EXCLUDED.price,
    discount = EXCLUDED.discount,
    disc_price = EXCLUDED.disc_price,
    qty = EXCLUDED.qty,
    colors = EXCLUDED.colors,
    sizes = EXCLUDED.sizes,
    image = EXCLUDED.image,
    images = EXCLUDED.images,
    details = EXCLUDED.details,
    tags = EXCLUDED.tags,
    rate = EXCLUDED.rate,
    reviews = EXCLUDED.reviews,
    is_new = EXCLUDED.is_new
RETURNING ` + productColumns
	res, err := r.scanProduct(r.pool.QueryRow(ctx, q,
		p.StoreID,
		p.Title,
		p.Gender,
		p.Type,
		p.Price.String(),
		optionalText(p.DiscountPercent),
		optionalText(p.DiscountedPrice),
		strconv.Itoa(p.Quantity),
		nonNil(p.Colors),
		nonNil(p.Sizes),
		p.Image,
		nonNil(p.Images),
		p.Details,
		nonNil(p.Tags),
		p.Rating,
		p.Reviews,
		p.IsNew,
	))
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("store_id", p.StoreID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: upserted", zap.String("store_id", res.StoreID), zap.String("id", res.ID))
	return res, nil
}

// scanProduct normalises the text-typed columns once so callers never see
// raw catalog strings.
func (r *postgresRepo) scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p                          domain.Product
		price, discount, discPrice string
		qty                        string
	)
	err := row.Scan(
		&p.ID,
		&p.StoreID,
		&p.Title,
		&p.Gender,
		&p.Type,
		&price,
		&discount,
		&discPrice,
		&qty,
		&p.Colors,
		&p.Sizes,
		&p.Image,
		&p.Images,
		&p.Details,
		&p.Tags,
		&p.Rating,
		&p.Reviews,
		&p.IsNew,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Price = r.parseMoney(p.ID, "price", price)
	p.DiscountPercent = r.parseOptional(p.ID, "discount", discount)
	if p.DiscountPercent != nil {
		p.DiscountedPrice = r.parseOptional(p.ID, "disc_price", discPrice)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(qty)); err == nil {
		p.Quantity = n
	} else if qty != "" {
		r.logger.Warn("product repo: bad quantity", zap.String("id", p.ID), zap.String("qty", qty))
	}
	p.Colors = nonNil(p.Colors)
	p.Sizes = nonNil(p.Sizes)
	p.Images = nonNil(p.Images)
	p.Tags = nonNil(p.Tags)
	return &p, nil
}

func (r *postgresRepo) parseMoney(id, field, raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		r.logger.Warn("product repo: unparseable amount", zap.String("id", id), zap.String("field", field), zap.String("value", raw))
		return decimal.Zero
	}
	return d
}

func (r *postgresRepo) parseOptional(id, field, raw string) *decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	d := r.parseMoney(id, field, raw)
	return &d
}

func optionalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
