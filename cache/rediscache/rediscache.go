package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/go-gotop/okconn/cache"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(rdb *redis.Client, ops ...Option) *RedisCache {
	opts := &options{
		keyPrefix: "okconn:",
	}
	for _, o := range ops {
		o(opts)
	}
	return &RedisCache{
		rdb:  rdb,
		opts: opts,
	}
}

type RedisCache struct {
	rdb  *redis.Client
	opts *options
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	data, err := r.rdb.Get(ctx, r.opts.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", cache.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return data, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, expire time.Duration) error {
	return r.rdb.Set(ctx, r.opts.keyPrefix+key, value, expire).Err()
}

func (r *RedisCache) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.opts.keyPrefix+key).Err()
}
