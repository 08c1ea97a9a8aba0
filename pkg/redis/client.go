package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"yardgate/pkg/config"
)

const (
	keyNamespace      = "yg"
	idempotencyPrefix = "idempotency"
)

// IdempotencyStore exposes the minimal operations used by the idempotency
// middleware.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

// Client wraps the redis connection helpers needed by the API.
type Client struct {
	raw *redis.Client
}

// New bootstraps a Redis client and verifies connectivity.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	raw := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{raw: raw}, nil
}

func (c *Client) Close() error {
	return c.raw.Close()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	value, err := c.raw.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return value, err
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.raw.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyNamespace, idempotencyPrefix, scope, id)
}
