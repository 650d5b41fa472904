package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, policy FailPolicy) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Minute, policy, zerolog.Nop()), mr
}

func TestAllowWithinLimit(t *testing.T) {
	l, mr := newTestLimiter(t, FailOpen)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "comments", "user:1", 3), "hit %d", i+1)
	}
	assert.False(t, l.Allow(ctx, "comments", "user:1", 3))

	// other identities have their own window
	assert.True(t, l.Allow(ctx, "comments", "user:2", 3))

	ttl := mr.TTL("rl:comments:user:1")
	assert.Equal(t, time.Minute, ttl)
}

func TestWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, FailOpen)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "login", "ip:1.2.3.4", 1))
	assert.False(t, l.Allow(ctx, "login", "ip:1.2.3.4", 1))

	mr.FastForward(61 * time.Second)
	assert.True(t, l.Allow(ctx, "login", "ip:1.2.3.4", 1))
}

func TestFailPolicy(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	open := New(rdb, time.Minute, FailOpen, zerolog.Nop())
	assert.True(t, open.Allow(context.Background(), "donations", "ip:x", 1))

	closed := New(rdb, time.Minute, FailClosed, zerolog.Nop())
	assert.False(t, closed.Allow(context.Background(), "donations", "ip:x", 1))
}

func TestDisabledLimiter(t *testing.T) {
	l := New(nil, time.Minute, FailClosed, zerolog.Nop())
	assert.False(t, l.Enabled())
	assert.True(t, l.Allow(context.Background(), "x", "y", 1))

	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow(context.Background(), "x", "y", 1))
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = NewClient("not a url")
	assert.Error(t, err)

	c, err = NewClient("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.NotNil(t, c)
	_ = c.Close()
}
