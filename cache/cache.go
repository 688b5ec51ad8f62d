package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound 缓存中不存在该键
var ErrNotFound = errors.New("cache: key not found")

// KeyValueCache 键值缓存,用于余额与最新成交价的短期缓存
type KeyValueCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expire time.Duration) error
	Del(ctx context.Context, key string) error
}
