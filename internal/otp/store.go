package otp

import (
	"context"
	"sync"
	"time"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/util"
)

const DefaultTTL = 5 * time.Minute

// Option configures a store.
type Option func(*options)

type options struct {
	now      func() time.Time
	generate func() (string, error)
}

// WithClock overrides the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithGenerator overrides the code generator. Defaults to util.GenerateResetCode.
func WithGenerator(generate func() (string, error)) Option {
	return func(o *options) {
		o.generate = generate
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, generate: util.GenerateResetCode}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MemoryStore keeps one reset code per email in process memory. Entries do
// not survive a restart. It is safe for concurrent use.
type MemoryStore struct {
	ttl time.Duration
	options

	mu      sync.Mutex
	entries map[string]domain.OTPEntry
}

func NewMemoryStore(ttl time.Duration, opts ...Option) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		options: buildOptions(opts),
		entries: make(map[string]domain.OTPEntry),
	}
}

// Issue replaces any previous code for email.
func (s *MemoryStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.entries[email] = domain.OTPEntry{Email: email, Code: code, ExpiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return code, nil
}

// Verify does not consume the entry.
func (s *MemoryStore) Verify(ctx context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	entry, ok := s.entries[email]
	s.mu.Unlock()
	if !ok || entry.Expired(s.now()) {
		return false, nil
	}
	return entry.Code == code, nil
}

func (s *MemoryStore) Consume(ctx context.Context, email string) error {
	s.mu.Lock()
	delete(s.entries, email)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for email, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, email)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is cancelled.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
