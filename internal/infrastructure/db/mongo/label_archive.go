package mongo

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/carrier-bindings/internal/core/ports"
)

const (
	defaultBucket    = "labels"
	defaultChunkSize = 255 * 1024
)

// LabelArchive implements ports.LabelArchive on a GridFS bucket.
type LabelArchive struct {
	bucket *gridfs.Bucket
}

// NewLabelArchive opens (lazily creating) the named GridFS bucket.
func NewLabelArchive(db *mongo.Database, bucketName string) (*LabelArchive, error) {
	if bucketName == "" {
		bucketName = defaultBucket
	}
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().
		SetName(bucketName).
		SetChunkSizeBytes(defaultChunkSize))
	if err != nil {
		return nil, fmt.Errorf("open label bucket: %w", err)
	}
	return &LabelArchive{bucket: bucket}, nil
}

// Store uploads data and returns the archive id.
func (a *LabelArchive) Store(ctx context.Context, name string, data []byte, meta ports.LabelMeta) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	opts := options.GridFSUpload().SetMetadata(labelMetadata(meta))
	if err := a.bucket.UploadFromStreamWithID(id, archiveName(meta, name), bytes.NewReader(data), opts); err != nil {
		return "", fmt.Errorf("archive label %s: %w", name, err)
	}
	return id, nil
}

// archiveName files labels under carrier/tracking number.
func archiveName(meta ports.LabelMeta, name string) string {
	return path.Join(strings.ToLower(meta.Carrier), meta.TrackingNumber, path.Base(name))
}

func labelMetadata(meta ports.LabelMeta) bson.M {
	m := bson.M{
		"carrier":         meta.Carrier,
		"tracking_number": meta.TrackingNumber,
		"format":          meta.Format,
	}
	if meta.TransactionID != "" {
		m["transaction_id"] = meta.TransactionID
	}
	return m
}
