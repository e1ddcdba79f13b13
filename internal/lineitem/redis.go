package lineitem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/logging"
)

// Redis keeps all values of a session in one hash whose TTL slides forward
// on every read and write, so a session's keys expire together. Writes are
// announced on a per-session pub/sub channel.
type Redis struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, logger: logging.OrNop(logger)}
}

func (r *Redis) sessionKey(session string) string {
	return fmt.Sprintf("storefront:session:%s", session)
}

func (r *Redis) channel(session string) string {
	return fmt.Sprintf("storefront:session:%s:changes", session)
}

func (r *Redis) touch(ctx context.Context, pipe redis.Pipeliner, k string) {
	if r.ttl > 0 {
		pipe.Expire(ctx, k, r.ttl)
	}
}

func (r *Redis) Get(ctx context.Context, session string, key Key) ([]byte, bool, error) {
	k := r.sessionKey(session)
	pipe := r.rdb.TxPipeline()
	get := pipe.HGet(ctx, k, string(key))
	r.touch(ctx, pipe, k)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Error("session store: get", zap.String("key", k), zap.String("field", string(key)), zap.Error(err))
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	raw, err := get.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return raw, true, nil
}

func (r *Redis) Set(ctx context.Context, session string, key Key, value []byte) error {
	k := r.sessionKey(session)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, k, string(key), value)
	r.touch(ctx, pipe, k)
	r.publish(ctx, pipe, session, Change{Key: key})
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("session store: set", zap.String("key", k), zap.String("field", string(key)), zap.Error(err))
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, session string, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	k := r.sessionKey(session)
	fields := make([]string, len(keys))
	for i, key := range keys {
		fields[i] = string(key)
	}
	pipe := r.rdb.TxPipeline()
	pipe.HDel(ctx, k, fields...)
	r.touch(ctx, pipe, k)
	for _, key := range keys {
		r.publish(ctx, pipe, session, Change{Key: key, Deleted: true})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("session store: delete", zap.String("session", session), zap.Error(err))
		return fmt.Errorf("delete session keys: %w", err)
	}
	return nil
}

func (r *Redis) publish(ctx context.Context, pipe redis.Pipeliner, session string, c Change) {
	b, err := json.Marshal(c)
	if err != nil {
		return
	}
	pipe.Publish(ctx, r.channel(session), b)
}

func (r *Redis) Subscribe(ctx context.Context, session string) (<-chan Change, error) {
	ps := r.rdb.Subscribe(ctx, r.channel(session))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan Change, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					r.logger.Warn("session store: bad change payload", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- c:
				default:
				}
			}
		}
	}()
	return out, nil
}

var _ Store = (*Redis)(nil)
