package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

const requestLogCollection = "carrier_requests"

// RequestLogRepository implements ports.RequestLog using MongoDB. Every
// carrier exchange lands in the carrier_requests collection.
type RequestLogRepository struct {
	coll      *mongo.Collection
	retention time.Duration
}

// NewRequestLogRepository creates a RequestLogRepository. Records older than
// retention are expired by Mongo once EnsureIndexes has run; zero keeps them.
func NewRequestLogRepository(db *mongo.Database, retention time.Duration) *RequestLogRepository {
	return &RequestLogRepository{coll: db.Collection(requestLogCollection), retention: retention}
}

// Record inserts rec, assigning an id and timestamp when missing.
func (r *RequestLogRepository) Record(ctx context.Context, rec *domain.RequestRecord) error {
	prepareRecord(rec, time.Now())
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert request record: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup index and, with a retention set, the TTL index.
func (r *RequestLogRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{{
		Keys: bson.D{{Key: "carrier", Value: 1}, {Key: "action", Value: 1}, {Key: "created_at", Value: -1}},
	}}
	if r.retention > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.retention / time.Second)),
		})
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create request log indexes: %w", err)
	}
	return nil
}

func prepareRecord(rec *domain.RequestRecord, now time.Time) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
}
