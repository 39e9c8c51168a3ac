// Package ratelimit provides fixed-window counters used to throttle login
// attempts. A Redis-backed limiter shares counters across replicas; the
// in-memory limiter serves single-instance and test deployments.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts hits per key within a fixed window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}
