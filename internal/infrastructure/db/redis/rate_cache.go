package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

const defaultRateTTL = 10 * time.Minute

// RateCache keeps successful rate responses for a short TTL.
// Key format: rates:<quote key>
type RateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRateCache creates a RateCache; a non-positive ttl uses defaultRateTTL.
func NewRateCache(client *redis.Client, ttl time.Duration) *RateCache {
	if ttl <= 0 {
		ttl = defaultRateTTL
	}
	return &RateCache{client: client, ttl: ttl}
}

// Get returns the cached response for key, reporting ok=false on a miss.
func (c *RateCache) Get(ctx context.Context, key string) (*domain.RateResponse, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("rate cache get: %w", err)
	}
	var resp domain.RateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("rate cache decode: %w", err)
	}
	return &resp, true, nil
}

// Set stores resp under key until the TTL expires.
func (c *RateCache) Set(ctx context.Context, key string, resp *domain.RateResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("rate cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("rate cache set: %w", err)
	}
	return nil
}

func (c *RateCache) key(k string) string {
	return "rates:" + k
}
