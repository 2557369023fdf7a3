package stripewebhook

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeIdempotencyStore struct {
	keys     map[string]struct{}
	setNXErr error
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setNXErr != nil {
		return false, f.setNXErr
	}
	if f.keys == nil {
		f.keys = map[string]struct{}{}
	}
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = struct{}{}
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestIdempotencyGuardMarksFirstDelivery(t *testing.T) {
	t.Parallel()

	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "stripe:webhook")
	if err != nil {
		t.Fatalf("setup guard: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if seen {
		t.Fatal("first delivery must not read as processed")
	}

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !seen {
		t.Fatal("replay must read as processed")
	}
}

func TestIdempotencyGuardDeleteAllowsRetry(t *testing.T) {
	t.Parallel()

	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "stripe:webhook")
	if err != nil {
		t.Fatalf("setup guard: %v", err)
	}

	if _, err := guard.CheckAndMark(context.Background(), "evt_2"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := guard.Delete(context.Background(), "evt_2"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "evt_2")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if seen {
		t.Fatal("deleted event must be reprocessable")
	}
}

func TestIdempotencyGuardPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{setNXErr: errors.New("redis down")}, time.Hour, "stripe:webhook")
	if err != nil {
		t.Fatalf("setup guard: %v", err)
	}

	if _, err := guard.CheckAndMark(context.Background(), "evt_3"); err == nil {
		t.Fatal("expected store error to surface")
	}
}

func TestIdempotencyGuardValidatesInputs(t *testing.T) {
	t.Parallel()

	if _, err := NewIdempotencyGuard(nil, time.Hour, "scope"); err == nil {
		t.Fatal("nil store must be rejected")
	}
	if _, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, ""); err == nil {
		t.Fatal("empty scope must be rejected")
	}

	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "scope")
	if err != nil {
		t.Fatalf("setup guard: %v", err)
	}
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatal("empty event id must be rejected")
	}
}
