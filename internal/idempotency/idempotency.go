// Package idempotency guards POST /sales against double submission of the same
// checkout (a retried request after a timeout, a double-clicked pay button).
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// idem:sale:{key} -> "pending" while the commit runs, then the sale id
	keySale = "idem:sale:%s"
	pending = "pending"
)

var (
	TTLPending   = 2 * time.Minute
	TTLCompleted = 24 * time.Hour
)

var ErrInFlight = errors.New("a request with this idempotency key is still being processed")

// Store remembers which sale a key produced. Reserve returns the sale id of a
// finished earlier request, or "" when the caller now owns the key.
type Store interface {
	Reserve(ctx context.Context, key string) (saleID string, err error)
	Complete(ctx context.Context, key, saleID string) error
	Release(ctx context.Context, key string) error
}

type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// NewClient opens a redis client and checks it answers.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key string) (string, error) {
	k := fmt.Sprintf(keySale, key)
	ok, err := s.rdb.SetNX(ctx, k, pending, TTLPending).Result()
	if err != nil {
		return "", fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return "", nil
	}

	v, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return "", fmt.Errorf("read idempotency key: %w", err)
	}
	if v == pending {
		return "", ErrInFlight
	}
	return v, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, saleID string) error {
	if err := s.rdb.Set(ctx, fmt.Sprintf(keySale, key), saleID, TTLCompleted).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release frees a key whose request failed so the client may retry it.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, fmt.Sprintf(keySale, key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// Nop never remembers anything. Used when REDIS_ADDR is not set.
type Nop struct{}

func (Nop) Reserve(context.Context, string) (string, error) { return "", nil }

func (Nop) Complete(context.Context, string, string) error { return nil }

func (Nop) Release(context.Context, string) error { return nil }
