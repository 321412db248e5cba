package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"cryptotracker/internal/application/port"

	"github.com/redis/go-redis/v9"
)

// Repo stores records as plain string keys under prefix.
type Repo struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "cryptotracker"
	}
	return &Repo{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Repo) key(k string) string {
	return r.prefix + ":" + k
}

func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Repo) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, r.key(key), value, r.ttl).Err()
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}

// Close is a no-op; the client is owned by whoever created it.
func (r *Repo) Close() error { return nil }

var _ port.KVStore = (*Repo)(nil)
