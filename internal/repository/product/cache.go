package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const listIndexKey = "storefront:catalog:lists"

// cachedRepo serves reads from Redis and falls back to the wrapped repository.
// Cache failures are logged and never surface to callers.
type cachedRepo struct {
	Repository
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(inner Repository, rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) Repository {
	return &cachedRepo{Repository: inner, rdb: rdb, ttl: ttl, logger: logging.OrNop(logger)}
}

func (r *cachedRepo) productKey(id string) string {
	return fmt.Sprintf("storefront:catalog:product:%s", id)
}

func (r *cachedRepo) listKey(f domain.ProductFilter) string {
	return fmt.Sprintf("storefront:catalog:list:%s|%s|%s|%s|%t|%s|%d",
		f.Type, f.Gender, f.Search, f.Tag, f.NewOnly, f.Sort, f.Limit)
}

func (r *cachedRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	key := r.listKey(f)
	var cached []domain.Product
	if r.load(ctx, key, &cached) {
		return cached, nil
	}
	res, err := r.Repository.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if r.store(ctx, key, res) {
		if err := r.rdb.SAdd(ctx, listIndexKey, key).Err(); err != nil {
			r.logger.Warn("product cache: index list key", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}

func (r *cachedRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	key := r.productKey(id)
	var cached domain.Product
	if r.load(ctx, key, &cached) {
		return &cached, nil
	}
	p, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, p)
	return p, nil
}

// Upsert writes through and drops every cached view of the catalog.
func (r *cachedRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	res, err := r.Repository.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, res.ID)
	return res, nil
}

func (r *cachedRepo) invalidate(ctx context.Context, id string) {
	keys, err := r.rdb.SMembers(ctx, listIndexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Warn("product cache: read list index", zap.Error(err))
	}
	keys = append(keys, listIndexKey, r.productKey(id))
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("product cache: invalidate", zap.String("id", id), zap.Error(err))
	}
}

func (r *cachedRepo) load(ctx context.Context, key string, v any) bool {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("product cache: get", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		r.logger.Warn("product cache: decode", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *cachedRepo) store(ctx context.Context, key string, v any) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("product cache: set", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}
