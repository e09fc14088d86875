package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

const defaultGuardTTL = 24 * time.Hour

// LabelGuard claims a transaction id before a label purchase so that retries
// of the same request never buy a second label.
// Key format: label:<carrier>:<transaction id>
type LabelGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLabelGuard creates a LabelGuard; a non-positive ttl uses defaultGuardTTL.
func NewLabelGuard(client *redis.Client, ttl time.Duration) *LabelGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &LabelGuard{client: client, ttl: ttl}
}

// Acquire claims the transaction, returning domain.ErrDuplicateLabel when it
// is already held.
func (g *LabelGuard) Acquire(ctx context.Context, carrier, transactionID string) error {
	ok, err := g.client.SetNX(ctx, g.key(carrier, transactionID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return fmt.Errorf("label guard acquire: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s transaction %s: %w", carrier, transactionID, domain.ErrDuplicateLabel)
	}
	return nil
}

// Release drops the claim so a failed purchase can be retried.
func (g *LabelGuard) Release(ctx context.Context, carrier, transactionID string) error {
	if err := g.client.Del(ctx, g.key(carrier, transactionID)).Err(); err != nil {
		return fmt.Errorf("label guard release: %w", err)
	}
	return nil
}

func (g *LabelGuard) key(carrier, transactionID string) string {
	return fmt.Sprintf("label:%s:%s", carrier, transactionID)
}
