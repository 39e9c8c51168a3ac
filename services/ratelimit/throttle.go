package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginThrottle limits password attempts per tenant and email
type LoginThrottle struct {
	limiter  Limiter
	attempts int
	window   time.Duration
	logger   *zap.Logger
}

// NewLoginThrottle creates a throttle. attempts <= 0 disables it.
func NewLoginThrottle(limiter Limiter, attempts int, window time.Duration, logger *zap.Logger) *LoginThrottle {
	return &LoginThrottle{
		limiter:  limiter,
		attempts: attempts,
		window:   window,
		logger:   logger,
	}
}

// Allow records one attempt and reports whether it may proceed. A limiter
// failure lets the attempt through; bcrypt cost still bounds guessing.
func (t *LoginThrottle) Allow(ctx context.Context, tenantID uuid.UUID, email string) (Decision, bool) {
	if t == nil || t.limiter == nil || t.attempts <= 0 {
		return Decision{Allowed: true}, true
	}

	decision, err := t.limiter.Allow(ctx, LoginKey(tenantID, email), t.attempts, t.window)
	if err != nil {
		t.logger.Warn("login rate limiter unavailable, allowing attempt",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return Decision{Allowed: true}, true
	}
	return decision, decision.Allowed
}

// LoginKey builds the counter key for a tenant and email
func LoginKey(tenantID uuid.UUID, email string) string {
	return "login:" + tenantID.String() + ":" + strings.ToLower(strings.TrimSpace(email))
}
