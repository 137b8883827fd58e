package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	counterPrefix = "rl:cnt:"
	lockoutPrefix = "rl:lock:"
)

// RedisStore is a Redis-backed Store for multi-instance deployments. Counters
// use INCR with a TTL set on the first increment, which is the fixed-window
// approximation the product accepts: a false negative lets through a few
// extra attempts at window edges, which is cheap.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed rate limit store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := time.Now()

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, counterPrefix+key)
	ttl := pipe.PTTL(ctx, counterPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	count := incr.Val()
	if count == 1 || ttl.Val() < 0 {
		// First hit in this window (or a counter left without TTL after a
		// partial failure): start the window now.
		if err := s.client.Expire(ctx, counterPrefix+key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return count, now.Add(window), nil
	}

	return count, now.Add(ttl.Val()), nil
}

func (s *RedisStore) GetLockout(ctx context.Context, key string) (Lockout, error) {
	raw, err := s.client.Get(ctx, lockoutPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Lockout{}, nil
		}
		return Lockout{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return parseLockout(raw)
}

func (s *RedisStore) SetLockout(ctx context.Context, key string, lockout Lockout, ttl time.Duration) error {
	raw := strconv.FormatInt(lockout.Until.UnixMilli(), 10) + "|" + strconv.Itoa(lockout.Violations)
	if err := s.client.Set(ctx, lockoutPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, counterPrefix+key, lockoutPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func parseLockout(raw string) (Lockout, error) {
	untilPart, violationsPart, ok := strings.Cut(raw, "|")
	if !ok {
		return Lockout{}, fmt.Errorf("%w: malformed lockout record %q", ErrStoreUnavailable, raw)
	}

	untilMilli, err := strconv.ParseInt(untilPart, 10, 64)
	if err != nil {
		return Lockout{}, fmt.Errorf("%w: malformed lockout timestamp %q", ErrStoreUnavailable, raw)
	}

	violations, err := strconv.Atoi(violationsPart)
	if err != nil {
		return Lockout{}, fmt.Errorf("%w: malformed violation count %q", ErrStoreUnavailable, raw)
	}

	return Lockout{Until: time.UnixMilli(untilMilli), Violations: violations}, nil
}
