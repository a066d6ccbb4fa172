package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreForTests(t *testing.T, opts ...Option) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, DefaultTTL, opts...), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStoreForTests(t)

	code, err := store.Issue(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if ttl := mr.TTL(redisKeyPrefix + "ada@example.com"); ttl != DefaultTTL {
		t.Fatalf("expected key ttl %s, got %s", DefaultTTL, ttl)
	}
	if ok, err := store.Verify(ctx, "ada@example.com", code); err != nil || !ok {
		t.Fatalf("expected code to verify: ok=%v err=%v", ok, err)
	}
	if err := store.Consume(ctx, "ada@example.com"); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if ok, err := store.Verify(ctx, "ada@example.com", code); err != nil || ok {
		t.Fatalf("expected consumed code to fail: ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreKeyExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStoreForTests(t, WithGenerator(fixedCodes("654321")))

	_, _ = store.Issue(ctx, "ada@example.com")
	mr.FastForward(DefaultTTL + time.Second)
	if ok, _ := store.Verify(ctx, "ada@example.com", "654321"); ok {
		t.Fatalf("expected expired key to fail verification")
	}
}

func TestRedisStoreChecksStoredExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store, _ := newRedisStoreForTests(t, WithClock(clock.Now), WithGenerator(fixedCodes("654321")))

	_, _ = store.Issue(ctx, "ada@example.com")
	clock.Advance(DefaultTTL + time.Second)
	if ok, _ := store.Verify(ctx, "ada@example.com", "654321"); ok {
		t.Fatalf("expected stored expiry to be enforced")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStoreForTests(t)
	mr.Close()
	if _, err := store.Issue(ctx, "ada@example.com"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
