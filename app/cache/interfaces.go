package cache

import (
	"context"
	"encoding/json"
	"time"
)

// BatchCache holds recently fetched search batches.
type BatchCache interface {
	GetBatch(ctx context.Context, searchID int64) ([]json.RawMessage, bool, error)
	SetBatch(ctx context.Context, searchID int64, documents []json.RawMessage, ttl time.Duration) error
	DeleteBatch(ctx context.Context, searchID int64) error
	Health(ctx context.Context) map[string]interface{}
	Close() error
}
