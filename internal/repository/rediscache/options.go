package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Bbachelard/Option/internal/domain"
)

const keyPrefix = "options:available:"

// OptionsCache caches the raw option product set per product in Redis.
// A cache miss is not an error; callers fall through to the database.
type OptionsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOptionsCache creates a new Redis-backed available-options cache.
func NewOptionsCache(client *redis.Client, ttl time.Duration) *OptionsCache {
	return &OptionsCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached option products for a product. The second return
// value reports whether the entry was present.
func (c *OptionsCache) Get(ctx context.Context, productID string) ([]domain.Product, bool, error) {
	key := keyPrefix + productID

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get available options: %w", err)
	}

	var options []domain.Product
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, false, fmt.Errorf("unmarshal available options: %w", err)
	}

	return options, true, nil
}

// Set caches the option products for a product with the configured TTL.
func (c *OptionsCache) Set(ctx context.Context, productID string, options []domain.Product) error {
	key := keyPrefix + productID

	data, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("marshal available options: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set available options: %w", err)
	}

	return nil
}

// Invalidate drops the cached entry for a product.
func (c *OptionsCache) Invalidate(ctx context.Context, productID string) error {
	key := keyPrefix + productID

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del available options: %w", err)
	}

	return nil
}
