package otp

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func fixedCodes(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestMemoryStoreIssueVerifyConsume(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(DefaultTTL, WithClock(clock.Now))

	code, err := store.Issue(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if ok, _ := store.Verify(ctx, "ada@example.com", code); !ok {
		t.Fatalf("expected freshly issued code to verify")
	}
	if ok, _ := store.Verify(ctx, "ada@example.com", code); !ok {
		t.Fatalf("expected Verify not to consume the code")
	}
	if ok, _ := store.Verify(ctx, "other@example.com", code); ok {
		t.Fatalf("expected code to be bound to its email")
	}

	if err := store.Consume(ctx, "ada@example.com"); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if ok, _ := store.Verify(ctx, "ada@example.com", code); ok {
		t.Fatalf("expected consumed code to fail")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(DefaultTTL, WithClock(clock.Now), WithGenerator(fixedCodes("123456")))

	_, _ = store.Issue(ctx, "ada@example.com")

	clock.Advance(DefaultTTL)
	if ok, _ := store.Verify(ctx, "ada@example.com", "123456"); !ok {
		t.Fatalf("expected code to be valid exactly at expiry")
	}

	clock.Advance(time.Millisecond)
	if ok, _ := store.Verify(ctx, "ada@example.com", "123456"); ok {
		t.Fatalf("expected code to be rejected after expiry")
	}
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected sweep to remove 1 entry, got %d", removed)
	}
}

func TestMemoryStoreReissueReplacesCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultTTL, WithGenerator(fixedCodes("111111", "222222")))

	first, _ := store.Issue(ctx, "ada@example.com")
	second, _ := store.Issue(ctx, "ada@example.com")
	if ok, _ := store.Verify(ctx, "ada@example.com", first); ok {
		t.Fatalf("expected previous code %s to be replaced", first)
	}
	if ok, _ := store.Verify(ctx, "ada@example.com", second); !ok {
		t.Fatalf("expected latest code to verify")
	}
}

func TestMemoryStoreExactMatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultTTL, WithGenerator(fixedCodes("012345")))
	_, _ = store.Issue(ctx, "ada@example.com")
	for _, candidate := range []string{"12345", " 012345", "012345 ", "0123450"} {
		if ok, _ := store.Verify(ctx, "ada@example.com", candidate); ok {
			t.Fatalf("expected %q not to match", candidate)
		}
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultTTL)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("user%d@example.com", i%4)
			code, err := store.Issue(ctx, email)
			if err != nil {
				t.Errorf("Issue returned error: %v", err)
				return
			}
			_, _ = store.Verify(ctx, email, code)
			if i%3 == 0 {
				_ = store.Consume(ctx, email)
			}
			store.Sweep()
		}(i)
	}
	wg.Wait()
}

func TestRunJanitorStopsOnCancel(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
