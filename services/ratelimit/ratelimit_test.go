package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: clock.Now})

	for i := 1; i <= 3; i++ {
		d, err := limiter.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "attempt %d", i)
		assert.Equal(t, 3-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, clock.Now().Add(time.Minute), d.ResetAt)

	t.Run("other keys are independent", func(t *testing.T) {
		d, err := limiter.Allow(ctx, "other", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("window expiry resets the counter", func(t *testing.T) {
		clock.Advance(time.Minute)
		d, err := limiter.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2, d.Remaining)
	})
}

func TestMemoryLimiter_NoLimit(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	d, err := limiter.Allow(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_Capacity(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: clock.Now, MaxKeys: 1})

	_, err := limiter.Allow(ctx, "a", 1, time.Second)
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, "b", 1, time.Second)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	clock.Advance(time.Second)
	_, err = limiter.Allow(ctx, "b", 1, time.Second)
	assert.NoError(t, err, "expired keys are collected")
}

// fakeScripter answers EvalSha the way Redis runs the limiter script.
type fakeScripter struct {
	reply any
	err   error
	keys  []string
}

func (f *fakeScripter) cmd(ctx context.Context, keys []string) *redis.Cmd {
	f.keys = keys
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(f.reply)
	}
	return cmd
}

func (f *fakeScripter) Eval(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.cmd(ctx, keys)
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.cmd(ctx, keys)
}

func (f *fakeScripter) EvalRO(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.cmd(ctx, keys)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.cmd(ctx, keys)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

func TestRedisLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("under the limit", func(t *testing.T) {
		client := &fakeScripter{reply: []any{int64(2), int64(30000)}}
		limiter := NewRedisLimiterWithClient(client, "test:", clock)

		d, err := limiter.Allow(ctx, "login:k", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 3, d.Remaining)
		assert.Equal(t, now.Add(30*time.Second), d.ResetAt)
		assert.Equal(t, []string{"test:login:k"}, client.keys)
	})

	t.Run("over the limit", func(t *testing.T) {
		client := &fakeScripter{reply: []any{int64(6), int64(1000)}}
		limiter := NewRedisLimiterWithClient(client, "", clock)

		d, err := limiter.Allow(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Zero(t, d.Remaining)
	})

	t.Run("redis error", func(t *testing.T) {
		client := &fakeScripter{err: errors.New("dial tcp: connection refused")}
		limiter := NewRedisLimiterWithClient(client, "", clock)

		_, err := limiter.Allow(ctx, "k", 5, time.Minute)
		assert.Error(t, err)
	})

	t.Run("malformed reply", func(t *testing.T) {
		client := &fakeScripter{reply: "OK"}
		limiter := NewRedisLimiterWithClient(client, "", clock)

		_, err := limiter.Allow(ctx, "k", 5, time.Minute)
		assert.ErrorIs(t, err, ErrUnexpectedReply)
	})
}

func TestNewRedisLimiter_RequiresAddr(t *testing.T) {
	_, _, err := NewRedisLimiter(RedisOptions{}, nil)
	assert.Error(t, err)
}

type erroringLimiter struct{}

func (erroringLimiter) Allow(context.Context, string, int, time.Duration) (Decision, error) {
	return Decision{}, errors.New("redis down")
}

func TestLoginThrottle(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()

	t.Run("blocks after the configured attempts", func(t *testing.T) {
		throttle := NewLoginThrottle(NewMemoryLimiter(MemoryLimiterConfig{}), 2, time.Minute, zap.NewNop())

		_, ok := throttle.Allow(ctx, tenant, "a@x.com")
		assert.True(t, ok)
		_, ok = throttle.Allow(ctx, tenant, "A@X.com ")
		assert.True(t, ok)
		_, ok = throttle.Allow(ctx, tenant, "a@x.com")
		assert.False(t, ok, "email is normalized into the key")

		_, ok = throttle.Allow(ctx, uuid.New(), "a@x.com")
		assert.True(t, ok, "tenants are counted separately")
	})

	t.Run("fails open on limiter error", func(t *testing.T) {
		throttle := NewLoginThrottle(erroringLimiter{}, 1, time.Minute, zap.NewNop())
		_, ok := throttle.Allow(ctx, tenant, "a@x.com")
		assert.True(t, ok)
	})

	t.Run("nil throttle allows", func(t *testing.T) {
		var throttle *LoginThrottle
		_, ok := throttle.Allow(ctx, tenant, "a@x.com")
		assert.True(t, ok)
	})
}

func TestLoginKey(t *testing.T) {
	tenant := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	assert.Equal(t, "login:00000000-0000-0000-0000-000000000001:a@x.com", LoginKey(tenant, " A@x.com"))
}
