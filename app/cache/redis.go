package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ BatchCache = (*Cache)(nil)

// Cache stores search batches in Redis.
type Cache struct {
	client *redis.Client
}

type cachedBatch struct {
	Documents []json.RawMessage `json:"documents"`
	CachedAt  int64             `json:"cached_at"`
}

func NewCache(ctx context.Context, addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{client: client}, nil
}

func BatchKey(searchID int64) string {
	return fmt.Sprintf("batch:%d", searchID)
}

// GetBatch reports a miss rather than an error for absent or corrupt entries.
func (c *Cache) GetBatch(ctx context.Context, searchID int64) ([]json.RawMessage, bool, error) {
	key := BatchKey(searchID)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	documents, ok := decodeBatch(data)
	if !ok {
		slog.Warn("Dropping corrupt cache entry", "key", key)
		if err := c.client.Del(ctx, key).Err(); err != nil {
			slog.Warn("Failed to delete corrupt cache entry", "key", key, "error", err)
		}
		return nil, false, nil
	}

	return documents, true, nil
}

func (c *Cache) SetBatch(ctx context.Context, searchID int64, documents []json.RawMessage, ttl time.Duration) error {
	key := BatchKey(searchID)

	data, err := encodeBatch(documents, time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) DeleteBatch(ctx context.Context, searchID int64) error {
	key := BatchKey(searchID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = size
	}

	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func encodeBatch(documents []json.RawMessage, now time.Time) ([]byte, error) {
	if documents == nil {
		documents = []json.RawMessage{}
	}
	return json.Marshal(cachedBatch{Documents: documents, CachedAt: now.Unix()})
}

func decodeBatch(data []byte) ([]json.RawMessage, bool) {
	var batch cachedBatch
	if err := json.Unmarshal(data, &batch); err != nil || batch.Documents == nil {
		return nil, false
	}
	return batch.Documents, true
}
