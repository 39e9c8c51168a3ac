// Package tenancy binds tenant and user identity onto dedicated database
// connections so that row-level security policies can filter every
// statement executed on them.
//
// A *Conn fresh from the pool exposes no way to run SQL. Only Bind returns a
// *BoundConn, which is the query capability handed to repositories.
package tenancy

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/auth"
)

var (
	// ErrBind is returned when session context could not be established.
	// The connection has already been discarded when this is returned.
	ErrBind = errors.New("session context bind failed")

	// ErrAcquire is returned when no connection could be checked out.
	ErrAcquire = errors.New("database connection unavailable")

	// ErrNoTenant is returned when a principal without tenant reaches the gateway.
	ErrNoTenant = errors.New("principal has no tenant")

	// ErrConnClosed is returned when a released or discarded Conn is reused.
	// It matches sql.ErrConnDone, which is what a row from a closed
	// connection reports on Scan.
	ErrConnClosed = fmt.Errorf("connection already released: %w", sql.ErrConnDone)
)

// Session variables read by the RLS policies.
const (
	TenantSetting = "app.tenant_id"
	UserSetting   = "app.user_id"
)

// BindStatement sets both session variables in one statement so they are
// applied together or not at all.
const BindStatement = `SELECT set_config('app.tenant_id', $1, false), set_config('app.user_id', $2, false)`

// Connector hands out dedicated physical connections. *sql.DB satisfies it.
type Connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// Querier is the statement-execution capability shared by *BoundConn and
// *sql.Tx. Repositories accept it so they run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn is a checked-out connection that has not been bound yet.
type Conn struct {
	raw  *sql.Conn
	done bool
}

// Acquire checks out one dedicated connection.
func Acquire(ctx context.Context, c Connector) (*Conn, error) {
	raw, err := c.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquire, err)
	}
	return &Conn{raw: raw}, nil
}

// Bind establishes p's tenant and user on the connection. On failure the
// connection is discarded and ErrBind is returned; the Conn must not be used
// again. Binding the same principal twice yields the same context.
func (c *Conn) Bind(ctx context.Context, p auth.Principal) (*BoundConn, error) {
	if c.done {
		return nil, fmt.Errorf("%w: %w", ErrBind, ErrConnClosed)
	}
	if !p.HasTenant() {
		_ = c.Discard()
		return nil, fmt.Errorf("%w: %w", ErrBind, ErrNoTenant)
	}

	tenant := p.TenantID.String()
	user := ""
	if p.UserID != uuid.Nil {
		user = p.UserID.String()
	}

	var gotTenant, gotUser string
	if err := c.raw.QueryRowContext(ctx, BindStatement, tenant, user).Scan(&gotTenant, &gotUser); err != nil {
		_ = c.Discard()
		return nil, fmt.Errorf("%w: %v", ErrBind, err)
	}
	if gotTenant != tenant || gotUser != user {
		_ = c.Discard()
		return nil, fmt.Errorf("%w: session context mismatch", ErrBind)
	}

	return &BoundConn{conn: c, principal: p}, nil
}

// Release returns the connection to the pool. Only call it after the last
// statement completed successfully; the next borrower rebinds before use.
func (c *Conn) Release() error {
	if c.done {
		return nil
	}
	c.done = true
	return c.raw.Close()
}

// Discard closes the physical connection so it never re-enters the pool.
func (c *Conn) Discard() error {
	if c.done {
		return nil
	}
	c.done = true
	err := c.raw.Raw(func(any) error {
		return driver.ErrBadConn
	})
	if errors.Is(err, driver.ErrBadConn) {
		return nil
	}
	return err
}

// closedRow returns a row whose Scan reports sql.ErrConnDone. raw is closed
// whenever done is set, so database/sql rejects the statement before it
// reaches the driver.
func (c *Conn) closedRow(ctx context.Context) *sql.Row {
	return c.raw.QueryRowContext(ctx, "SELECT 1")
}

// BoundConn is a connection whose session context matches a principal.
type BoundConn struct {
	conn      *Conn
	principal auth.Principal
}

// Principal returns the identity bound on this connection.
func (b *BoundConn) Principal() auth.Principal {
	return b.principal
}

// ExecContext implements Querier.
func (b *BoundConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if b.conn.done {
		return nil, ErrConnClosed
	}
	return b.conn.raw.ExecContext(ctx, query, args...)
}

// QueryContext implements Querier.
func (b *BoundConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if b.conn.done {
		return nil, ErrConnClosed
	}
	return b.conn.raw.QueryContext(ctx, query, args...)
}

// QueryRowContext implements Querier. *sql.Row carries its error to Scan.
func (b *BoundConn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if b.conn.done {
		return b.conn.closedRow(ctx)
	}
	return b.conn.raw.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction on the bound connection. The session context
// set by Bind applies to every statement in it.
func (b *BoundConn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if b.conn.done {
		return nil, ErrConnClosed
	}
	return b.conn.raw.BeginTx(ctx, opts)
}
