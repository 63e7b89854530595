package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
)

// SlidingWindowConfig tunes the attempt store. TTL should exceed the longest
// throttle window consuming the store so entries outlive every count that may
// still need them.
type SlidingWindowConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// RateLimitRepository keeps one sorted set of attempt timestamps per throttle
// scope (login by client address, password reset by account). Scores and
// members are both the attempt's UnixNano, so range queries and reads need no
// separate payload.
type RateLimitRepository struct {
	client *redis.Client
	cfg    SlidingWindowConfig
}

// NewRateLimitRepository wraps the Redis client as a port.RateLimitStore.
func NewRateLimitRepository(client *redis.Client, cfg SlidingWindowConfig) *RateLimitRepository {
	return &RateLimitRepository{client: client, cfg: cfg}
}

// RecordAttempt appends a timestamp to the scope's window. The ZADD and the
// TTL refresh travel in one pipeline round trip.
func (r *RateLimitRepository) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := r.scopeKey(identifier)
	ns := at.UnixNano()

	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(ns), Member: ns})
		if r.cfg.TTL > 0 {
			pipe.Expire(ctx, key, r.cfg.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// CountAttempts returns how many attempts fall inside the window ending at
// the reference time.
func (r *RateLimitRepository) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errNonPositiveWindow
	}

	count, err := r.client.ZCount(ctx, r.scopeKey(identifier),
		nanoScore(reference.Add(-window)), nanoScore(reference)).Result()
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return int(count), nil
}

// TrimWindow drops attempts that aged out of the window so abandoned scopes
// do not accumulate members for the full TTL.
func (r *RateLimitRepository) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errNonPositiveWindow
	}

	err := r.client.ZRemRangeByScore(ctx, r.scopeKey(identifier),
		"-inf", nanoScore(reference.Add(-window))).Err()
	if err != nil {
		return fmt.Errorf("trim window: %w", err)
	}
	return nil
}

// OldestAttempt returns the earliest attempt still inside the window, which
// callers turn into a retry-after hint. The second return is false when the
// window holds no attempts.
func (r *RateLimitRepository) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errNonPositiveWindow
	}

	members, err := r.client.ZRangeByScore(ctx, r.scopeKey(identifier), &redis.ZRangeBy{
		Min:   nanoScore(reference.Add(-window)),
		Max:   nanoScore(reference),
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("oldest attempt: %w", err)
	}
	if len(members) == 0 {
		return time.Time{}, false, nil
	}

	ns, err := strconv.ParseInt(members[0], 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("decode attempt member %q: %w", members[0], err)
	}
	return time.Unix(0, ns), true, nil
}

func (r *RateLimitRepository) scopeKey(identifier string) string {
	if r.cfg.KeyPrefix == "" {
		return identifier
	}
	return r.cfg.KeyPrefix + ":" + identifier
}

func nanoScore(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

var errNonPositiveWindow = fmt.Errorf("window must be positive")

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
