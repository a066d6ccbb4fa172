package otp

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

type mapResetRepo struct {
	mu     sync.Mutex
	resets map[string]domain.PasswordReset
}

func newMapResetRepo() *mapResetRepo {
	return &mapResetRepo{resets: make(map[string]domain.PasswordReset)}
}

func (r *mapResetRepo) Upsert(ctx context.Context, reset domain.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets[reset.Email] = reset
	return nil
}

func (r *mapResetRepo) FindByEmail(ctx context.Context, email string) (*domain.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset, ok := r.resets[email]
	if !ok {
		return nil, ports.ErrResetNotFound
	}
	return &reset, nil
}

func (r *mapResetRepo) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resets[email]; !ok {
		return ports.ErrResetNotFound
	}
	delete(r.resets, email)
	return nil
}

func TestRepositoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newMapResetRepo()
	store := NewRepositoryStore(repo, 5*time.Minute,
		WithClock(func() time.Time { return now }),
		WithGenerator(func() (string, error) { return "482913", nil }),
	)

	code, err := store.Issue(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	stored := repo.resets["ada@example.com"]
	if bytes.Contains(stored.CodeHash, []byte(code)) {
		t.Fatalf("expected only a digest of the code to be stored")
	}

	if ok, _ := store.Verify(ctx, "ada@example.com", "000000"); ok {
		t.Fatalf("expected wrong code to fail")
	}
	if ok, err := store.Verify(ctx, "ada@example.com", code); err != nil || !ok {
		t.Fatalf("expected code to verify: ok=%v err=%v", ok, err)
	}
	if ok, _ := store.Verify(ctx, "ada@example.com", code); !ok {
		t.Fatalf("expected verify not to consume")
	}

	if err := store.Consume(ctx, "ada@example.com"); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if ok, _ := store.Verify(ctx, "ada@example.com", code); ok {
		t.Fatalf("expected consumed code to fail")
	}
	if err := store.Consume(ctx, "ada@example.com"); err != nil {
		t.Fatalf("expected second consume to be a no-op, got %v", err)
	}
}

func TestRepositoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewRepositoryStore(newMapResetRepo(), 5*time.Minute, WithClock(func() time.Time { return now }))

	code, err := store.Issue(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	now = now.Add(5 * time.Minute)
	if ok, _ := store.Verify(ctx, "ada@example.com", code); !ok {
		t.Fatalf("expected code to be valid exactly at expiry")
	}
	now = now.Add(time.Nanosecond)
	if ok, _ := store.Verify(ctx, "ada@example.com", code); ok {
		t.Fatalf("expected code to expire")
	}
}
