package otp

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/njprem/hubmarket-accounts/internal/domain"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
)

// RepositoryStore keeps reset codes in the account database so they survive
// restarts. Codes are stored as SHA-256 digests.
type RepositoryStore struct {
	repo ports.PasswordResetRepository
	ttl  time.Duration
	options
}

func NewRepositoryStore(repo ports.PasswordResetRepository, ttl time.Duration, opts ...Option) *RepositoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RepositoryStore{repo: repo, ttl: ttl, options: buildOptions(opts)}
}

func (s *RepositoryStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", err
	}
	now := s.now()
	err = s.repo.Upsert(ctx, domain.PasswordReset{
		Email:     email,
		CodeHash:  digestCode(code),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("otp: store code: %w", err)
	}
	return code, nil
}

func (s *RepositoryStore) Verify(ctx context.Context, email, code string) (bool, error) {
	reset, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ports.ErrResetNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("otp: load code: %w", err)
	}
	if reset.Expired(s.now()) {
		return false, nil
	}
	return subtle.ConstantTimeCompare(reset.CodeHash, digestCode(code)) == 1, nil
}

func (s *RepositoryStore) Consume(ctx context.Context, email string) error {
	err := s.repo.DeleteByEmail(ctx, email)
	if err != nil && !errors.Is(err, ports.ErrResetNotFound) {
		return fmt.Errorf("otp: delete code: %w", err)
	}
	return nil
}

func digestCode(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}
