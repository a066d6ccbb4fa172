package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/njprem/hubmarket-accounts/internal/domain"
)

const redisKeyPrefix = "otp:reset:"

// RedisStore shares reset codes between replicas. Keys carry the TTL, and the
// stored expiry is checked again on read.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	options
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration, opts ...Option) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, options: buildOptions(opts)}
}

func (s *RedisStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(domain.OTPEntry{Email: email, Code: code, ExpiresAt: s.now().Add(s.ttl)})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+email, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("otp: store code: %w", err)
	}
	return code, nil
}

func (s *RedisStore) Verify(ctx context.Context, email, code string) (bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("otp: load code: %w", err)
	}
	var entry domain.OTPEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return false, fmt.Errorf("otp: decode code: %w", err)
	}
	if entry.Expired(s.now()) {
		return false, nil
	}
	return entry.Code == code, nil
}

func (s *RedisStore) Consume(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("otp: delete code: %w", err)
	}
	return nil
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
