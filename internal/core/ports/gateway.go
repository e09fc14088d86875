package ports

import (
	"context"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

// RateCache stores rate responses for identical quotes.
type RateCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, key string) (resp *domain.RateResponse, ok bool, err error)
	Set(ctx context.Context, key string, resp *domain.RateResponse) error
}

// LabelGuard makes sure a transaction buys at most one label.
type LabelGuard interface {
	// Acquire returns domain.ErrDuplicateLabel when the transaction was already claimed.
	Acquire(ctx context.Context, carrier, transactionID string) error
	// Release frees a claim after a failed purchase so it can be retried.
	Release(ctx context.Context, carrier, transactionID string) error
}

// RequestLog persists raw carrier exchanges.
type RequestLog interface {
	Record(ctx context.Context, rec *domain.RequestRecord) error
}

// LabelArchive keeps a copy of every purchased label image.
type LabelArchive interface {
	Store(ctx context.Context, name string, data []byte, meta LabelMeta) (string, error)
}

// LabelMeta is stored alongside an archived label.
type LabelMeta struct {
	Carrier        string
	TrackingNumber string
	TransactionID  string
	Format         string
}

// TrackingQueue runs tracking lookups on workers sharded by tracking number,
// so lookups for the same shipment never run concurrently.
type TrackingQueue interface {
	// Enqueue blocks while the shard is full and fails once ctx is done.
	Enqueue(ctx context.Context, trackingNumber string, run func(context.Context)) error
}
