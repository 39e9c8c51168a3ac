package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/observability"
	"go.uber.org/zap"
)

// Gateway is the only path to tenant-scoped SQL. Every Run checks out a
// connection, binds the principal, runs fn and then releases or discards.
type Gateway struct {
	db      Connector
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewGateway creates a Gateway. metrics may be nil.
func NewGateway(db Connector, logger *zap.Logger, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		db:      db,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes fn on a connection bound to p.
//
// The connection is returned to the pool only when fn succeeds and ctx is
// still live. Any error, panic or cancellation closes it instead, so a
// half-finished statement can never leak session state to the next borrower.
// Binding happens on every call; there is no reuse of a previous binding.
func (g *Gateway) Run(ctx context.Context, p auth.Principal, fn func(ctx context.Context, conn *BoundConn) error) (err error) {
	if !p.HasTenant() {
		return ErrNoTenant
	}

	conn, err := Acquire(ctx, g.db)
	if err != nil {
		g.logger.Error("failed to acquire connection",
			zap.String("tenant_id", p.TenantID.String()),
			zap.Error(err))
		return err
	}

	bound, err := conn.Bind(ctx, p)
	if err != nil {
		g.metrics.ObserveBind("error")
		g.metrics.ObserveDiscard("bind")
		g.logger.Error("session context bind failed",
			zap.String("tenant_id", p.TenantID.String()),
			zap.String("user_id", p.UserID.String()),
			zap.Error(err))
		return err
	}
	g.metrics.ObserveBind("ok")

	defer func() {
		if r := recover(); r != nil {
			g.discard(conn, "panic")
			panic(r)
		}
	}()

	err = fn(ctx, bound)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	if err != nil {
		reason := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			reason = "cancelled"
		}
		g.discard(conn, reason)
		return err
	}

	if relErr := conn.Release(); relErr != nil {
		g.logger.Warn("failed to release connection", zap.Error(relErr))
	}
	return nil
}

// RunResult is Run for callbacks that produce a value.
func RunResult[T any](ctx context.Context, g *Gateway, p auth.Principal, fn func(ctx context.Context, conn *BoundConn) (T, error)) (T, error) {
	var result T
	err := g.Run(ctx, p, func(ctx context.Context, conn *BoundConn) error {
		var fnErr error
		result, fnErr = fn(ctx, conn)
		return fnErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func (g *Gateway) discard(conn *Conn, reason string) {
	g.metrics.ObserveDiscard(reason)
	if err := conn.Discard(); err != nil {
		g.logger.Warn("failed to discard connection",
			zap.String("reason", reason),
			zap.Error(err))
	}
}

// WithTx runs fn inside a transaction on the bound connection.
// Commits on success, rolls back on error or panic.
func WithTx(ctx context.Context, conn *BoundConn, fn func(tx Querier) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
