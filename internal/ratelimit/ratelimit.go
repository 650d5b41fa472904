package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// FailPolicy defines the behavior when Redis cannot be reached
type FailPolicy int

const (
	// FailOpen lets the request through
	FailOpen FailPolicy = iota
	// FailClosed rejects the request
	FailClosed
)

// Limiter is a fixed-window request counter backed by Redis
type Limiter struct {
	rdb    redis.Cmdable
	window time.Duration
	policy FailPolicy
	log    zerolog.Logger
}

// New creates a Limiter. A nil client yields a limiter that allows everything.
func New(rdb redis.Cmdable, window time.Duration, policy FailPolicy, log zerolog.Logger) *Limiter {
	return &Limiter{
		rdb:    rdb,
		window: window,
		policy: policy,
		log:    log.With().Str("component", "ratelimit").Logger(),
	}
}

// NewClient parses a redis:// URL and returns a client, or nil when url is empty
func NewClient(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Enabled reports whether the limiter has a backing store
func (l *Limiter) Enabled() bool {
	return l != nil && l.rdb != nil
}

// Allow counts one hit for (resource, id) and reports whether it is within
// limit. Store errors are resolved through the fail policy and logged.
func (l *Limiter) Allow(ctx context.Context, resource, id string, limit int) bool {
	if !l.Enabled() || limit <= 0 {
		return true
	}

	allowed, err := l.check(ctx, resource, id, limit)
	if err != nil {
		l.log.Warn().Err(err).
			Str("resource", resource).
			Bool("fail_closed", l.policy == FailClosed).
			Msg("Rate limit store unavailable")
		return l.policy == FailOpen
	}
	return allowed
}

func (l *Limiter) check(ctx context.Context, resource, id string, limit int) (bool, error) {
	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}
