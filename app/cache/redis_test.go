package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestBatchKey(t *testing.T) {
	if key := BatchKey(42); key != "batch:42" {
		t.Errorf("Expected key batch:42, got %s", key)
	}
	if BatchKey(1) == BatchKey(2) {
		t.Error("Expected different keys for different searches")
	}
}

func TestEncodeDecodeBatch(t *testing.T) {
	documents := []json.RawMessage{
		json.RawMessage(`{"id":"1"}`),
		json.RawMessage(`{"id":"2","content":{"title":"x"}}`),
	}

	data, err := encodeBatch(documents, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	decoded, ok := decodeBatch(data)
	if !ok {
		t.Fatal("Expected batch to decode")
	}
	if len(decoded) != 2 || string(decoded[1]) != `{"id":"2","content":{"title":"x"}}` {
		t.Errorf("Unexpected decoded documents: %s", decoded)
	}
}

func TestEncodeEmptyBatch(t *testing.T) {
	data, err := encodeBatch(nil, time.Now())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	decoded, ok := decodeBatch(data)
	if !ok {
		t.Fatal("An empty batch is a valid cache entry")
	}
	if len(decoded) != 0 {
		t.Errorf("Expected no documents, got %d", len(decoded))
	}
}

func TestDecodeCorruptBatch(t *testing.T) {
	for _, data := range []string{"not json", `{"cached_at": 1}`, `[]`} {
		if _, ok := decodeBatch([]byte(data)); ok {
			t.Errorf("Expected %q to be treated as a miss", data)
		}
	}
}

func TestNewCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewCache(ctx, "127.0.0.1:1"); err == nil {
		t.Error("Expected error for unreachable Redis")
	}
}
