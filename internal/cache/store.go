package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// RedisClient is the subset of redis.Client the store needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Store holds named JSON documents in Redis. Documents are double-encoded:
// the value is marshalled to JSON, and that JSON text is stored as a JSON
// string, so reads decode twice. Existing consumers of the cached documents
// depend on this wire contract.
type Store struct {
	client RedisClient
	tracer trace.Tracer
}

func NewStore(client RedisClient, tracer trace.Tracer) *Store {
	return &Store{client: client, tracer: tracer}
}

// SetDocument encodes v twice and stores it under key with no expiry.
// Pipeline keys are overwritten on each run, never versioned.
func (s *Store) SetDocument(ctx context.Context, key string, v any) error {
	ctx, span := s.tracer.Start(ctx, "store.set-document")
	defer span.End()

	inner, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	outer, err := json.Marshal(string(inner))
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, outer, 0).Err(); err != nil {
		return fmt.Errorf("set document %s: %w", key, err)
	}
	return nil
}

// GetDocument reads key and decodes twice into out. A missing key is an
// error; the pipeline treats it as fatal.
func (s *Store) GetDocument(ctx context.Context, key string, out any) error {
	ctx, span := s.tracer.Start(ctx, "store.get-document")
	defer span.End()

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return fmt.Errorf("document %s not found", key)
	}
	if err != nil {
		return fmt.Errorf("get document %s: %w", key, err)
	}

	var inner string
	if err := json.Unmarshal(data, &inner); err != nil {
		return fmt.Errorf("decode document %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(inner), out); err != nil {
		return fmt.Errorf("decode document %s: %w", key, err)
	}
	return nil
}
