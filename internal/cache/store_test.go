package cache

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"ticker-tape/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	vwap := 452.1
	txns := int64(1200)
	bars := []domain.Bar{
		{Date: 1672704000000, Open: 450, High: 455, Low: 449, Close: 454, Volume: 1000000, VWAP: &vwap, Transactions: &txns},
		{Date: 1672790400000, Open: 454, High: 460, Low: 453, Close: 459, Volume: 900000},
	}

	fake := newFakeRedis()
	store := NewStore(fake, testTracer)

	if err := store.SetDocument(context.Background(), domain.AggregateKey("LMT"), bars); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []domain.Bar
	if err := store.GetDocument(context.Background(), "stocks:aggregate:lmt", &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, bars) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, bars)
	}
}

// The stored value must itself be a JSON string containing the document, so
// that readers decoding twice recover the original list.
func TestStoreDoubleEncodes(t *testing.T) {
	t.Parallel()

	fake := newFakeRedis()
	store := NewStore(fake, testTracer)

	if err := store.SetDocument(context.Background(), "exchanges", []domain.Exchange{{Name: "NYSE"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, ok := fake.data["exchanges"]
	if !ok {
		t.Fatal("document not stored")
	}

	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		t.Fatalf("stored value is not a JSON string: %v", err)
	}
	var exchanges []domain.Exchange
	if err := json.Unmarshal([]byte(inner), &exchanges); err != nil {
		t.Fatalf("inner value is not the document: %v", err)
	}
	if len(exchanges) != 1 || exchanges[0].Name != "NYSE" {
		t.Fatalf("unexpected document: %+v", exchanges)
	}
}

func TestStoreMissingKey(t *testing.T) {
	t.Parallel()

	store := NewStore(newFakeRedis(), testTracer)

	var out []domain.Bar
	if err := store.GetDocument(context.Background(), "stocks:aggregate:rtx", &out); err == nil {
		t.Fatal("expected error for missing key")
	}
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}
