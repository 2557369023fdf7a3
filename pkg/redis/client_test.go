package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/julianreyes-dev/storefront-backend/pkg/config"
)

func testRedisConfig(url string) config.RedisConfig {
	return config.RedisConfig{
		URL:          url,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

type mockCmdable struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = toString(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = toString(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return "1"
}

func TestSetAndGet(t *testing.T) {
	t.Parallel()

	client := &Client{store: newMockCmdable()}
	ctx := context.Background()

	if err := client.Set(ctx, "greeting", "hello", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := client.Get(ctx, "greeting")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "hello" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()

	client := &Client{store: newMockCmdable()}
	if _, err := client.Get(context.Background(), "absent"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestSetNXOnlyFirstWins(t *testing.T) {
	t.Parallel()

	client := &Client{store: newMockCmdable()}
	ctx := context.Background()

	first, err := client.SetNX(ctx, "lock", "1", time.Minute)
	if err != nil {
		t.Fatalf("SetNX: %v", err)
	}
	if !first {
		t.Fatal("first SetNX should win")
	}

	second, err := client.SetNX(ctx, "lock", "1", time.Minute)
	if err != nil {
		t.Fatalf("SetNX: %v", err)
	}
	if second {
		t.Fatal("second SetNX should lose")
	}

	if err := client.Del(ctx, "lock"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	third, err := client.SetNX(ctx, "lock", "1", time.Minute)
	if err != nil {
		t.Fatalf("SetNX: %v", err)
	}
	if !third {
		t.Fatal("SetNX after Del should win again")
	}
}

func TestIdempotencyKeyFormat(t *testing.T) {
	t.Parallel()

	client := &Client{store: newMockCmdable()}
	if got := client.IdempotencyKey("stripe:webhook", "evt_123"); got != "sf:idempotency:stripe:webhook:evt_123" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := client.IdempotencyKey("", "evt_123"); got != "sf:idempotency:evt_123" {
		t.Fatalf("empty scope should be skipped, got %q", got)
	}
}

func TestUninitializedClient(t *testing.T) {
	t.Parallel()

	client := &Client{}
	ctx := context.Background()

	if err := client.Set(ctx, "k", "v", 0); err == nil {
		t.Fatal("expected error on uninitialized client")
	}
	if _, err := client.SetNX(ctx, "k", "v", 0); err == nil {
		t.Fatal("expected error on uninitialized client")
	}
	if err := client.Ping(ctx); err == nil {
		t.Fatal("expected error on uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close on uninitialized client should be a no-op, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	opts, err := optionsFromConfig(testRedisConfig("redis://localhost:6379/2"))
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 {
		t.Fatalf("url not applied: %+v", opts)
	}
	if opts.PoolSize != 10 || opts.DialTimeout != 5*time.Second {
		t.Fatalf("pool settings not applied: %+v", opts)
	}

	if _, err := optionsFromConfig(testRedisConfig("")); err == nil {
		t.Fatal("expected error when url and address are both empty")
	}
	if _, err := optionsFromConfig(testRedisConfig("::bogus::")); err == nil {
		t.Fatal("expected error for malformed url")
	}
}
