package revocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/school-auth/internal/persistence"
)

const (
	refreshKeyPrefix   = "auth:refresh:"
	blacklistKeyPrefix = "auth:blacklist:"
)

// RedisStore implements Store over a shared Redis instance. Every call is
// bounded by the configured timeout and retried once on transient failure.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisStore wraps an established Redis connection.
func NewRedisStore(rdb *persistence.Redis, timeout time.Duration, logger *zap.Logger) *RedisStore {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &RedisStore{client: rdb.Client, timeout: timeout, logger: logger}
}

// Get returns the active refresh entry, or nil when absent.
func (s *RedisStore) Get(ctx context.Context, tokenID string) (*Entry, error) {
	var raw string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		val, err := s.client.Get(ctx, refreshKeyPrefix+tokenID).Result()
		if err != nil {
			return err
		}
		raw = val
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("revocation get: %w", err)
	}
	return decodeEntry(raw)
}

// Put records a refresh token as active.
func (s *RedisStore) Put(ctx context.Context, entry Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("revocation encode: %w", err)
	}
	err = s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, refreshKeyPrefix+entry.TokenID, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("revocation put: %w", err)
	}
	return nil
}

// Delete removes a refresh entry.
func (s *RedisStore) Delete(ctx context.Context, tokenID string) error {
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, refreshKeyPrefix+tokenID).Err()
	})
	if err != nil {
		return fmt.Errorf("revocation delete: %w", err)
	}
	return nil
}

// Take removes and returns the entry in one round trip. GETDEL guarantees
// a single winner when two rotations race on the same token id.
func (s *RedisStore) Take(ctx context.Context, tokenID string) (*Entry, error) {
	var raw string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		val, err := s.client.GetDel(ctx, refreshKeyPrefix+tokenID).Result()
		if err != nil {
			return err
		}
		raw = val
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("revocation take: %w", err)
	}
	return decodeEntry(raw)
}

// Blacklist marks an access token as revoked until its natural expiry.
func (s *RedisStore) Blacklist(ctx context.Context, entry Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already past expiry, nothing to reject
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("revocation encode: %w", err)
	}
	err = s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, blacklistKeyPrefix+entry.TokenID, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("revocation blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether an access token id was revoked.
func (s *RedisStore) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	var found bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		n, err := s.client.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return found, nil
}

// withRetry bounds the call and retries once on transient failures.
// redis.Nil is a result, not a failure, and is never retried.
func (s *RedisStore) withRetry(ctx context.Context, op func(context.Context) error) error {
	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return op(callCtx)
	}

	err := attempt()
	if err == nil || errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return err
	}
	s.logger.Warn("revocation store call failed, retrying once", zap.Error(err))
	return attempt()
}

func decodeEntry(raw string) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("revocation decode: %w", err)
	}
	return &entry, nil
}
