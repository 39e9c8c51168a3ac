package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnexpectedReply is returned when the limiter script answers in an unknown shape
var ErrUnexpectedReply = errors.New("unexpected redis rate limit response")

type redisLimiter struct {
	client redis.Scripter
	prefix string
	now    func() time.Time
}

// INCR then set the window on first hit. Returns {count, ttl_ms}.
var redisAllowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisOptions holds connection settings for NewRedisLimiter
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisLimiter connects a limiter to Redis. The returned client should be
// closed on shutdown.
func NewRedisLimiter(opts RedisOptions, now func() time.Time) (Limiter, *redis.Client, error) {
	if opts.Addr == "" {
		return nil, nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisLimiterWithClient(client, opts.Prefix, now), client, nil
}

// NewRedisLimiterWithClient builds a limiter on an existing client
func NewRedisLimiterWithClient(client redis.Scripter, prefix string, now func() time.Time) Limiter {
	if now == nil {
		now = time.Now
	}
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &redisLimiter{client: client, prefix: prefix, now: now}
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}

	result, err := redisAllowScript.Run(ctx, r.client, []string{r.prefix + key}, windowMillis).Result()
	if err != nil {
		return Decision{}, err
	}
	return decisionFromReply(result, limit, r.now())
}

func decisionFromReply(result any, limit int, now time.Time) (Decision, error) {
	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return Decision{}, ErrUnexpectedReply
	}
	current, ok := values[0].(int64)
	if !ok {
		return Decision{}, ErrUnexpectedReply
	}
	ttlMillis, _ := values[1].(int64)

	resetAt := now
	if ttlMillis > 0 {
		resetAt = resetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   current <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
