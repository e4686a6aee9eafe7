// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"travel-planner/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient owns the pool behind the shared lookup cache.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a pooled client. The connection is lazy; call Ping to
// surface a bad address at startup.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	pool := cfg.PoolSize
	if pool <= 0 {
		pool = 10
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   "travel-planner",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     pool,
		MinIdleConns: 2,
	})
	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// PurgePrefix deletes every key starting with prefix and returns how many
// were removed. An empty prefix is refused.
func (c *RedisClient) PurgePrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, fmt.Errorf("refusing to purge without a key prefix")
	}
	var removed int
	iter := c.Client.Scan(ctx, 0, prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		n, err := c.Client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("redis purge: %w", err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis purge: %w", err)
	}
	return removed, nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
