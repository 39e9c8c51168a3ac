package tenancy

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/observability"
	"go.uber.org/zap"
)

const listRoles = `SELECT name FROM security.role`

func TestGateway_Run(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("binds before the query and releases on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		expectBind(mock, p)
		mock.ExpectQuery(regexp.QuoteMeta(listRoles)).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("underwriter"))

		gw := NewGateway(db, logger, nil)
		var names []string
		err := gw.Run(ctx, p, func(ctx context.Context, conn *BoundConn) error {
			rows, err := conn.QueryContext(ctx, listRoles)
			if err != nil {
				return err
			}
			defer rows.Close()
			for rows.Next() {
				var n string
				if err := rows.Scan(&n); err != nil {
					return err
				}
				names = append(names, n)
			}
			return rows.Err()
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"underwriter"}, names)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rebinds on every checkout even for the same principal", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		expectBind(mock, p)
		expectBind(mock, p)

		gw := NewGateway(db, logger, nil)
		noop := func(context.Context, *BoundConn) error { return nil }

		require.NoError(t, gw.Run(ctx, p, noop))
		require.NoError(t, gw.Run(ctx, p, noop))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pooled connection is rebound for a different tenant", func(t *testing.T) {
		db, mock := newMockDB(t)
		first := testPrincipal()
		second := testPrincipal()
		expectBind(mock, first)
		expectBind(mock, second)

		gw := NewGateway(db, logger, nil)
		var seen []auth.Principal
		record := func(_ context.Context, conn *BoundConn) error {
			seen = append(seen, conn.Principal())
			return nil
		}

		require.NoError(t, gw.Run(ctx, first, record))
		require.NoError(t, gw.Run(ctx, second, record))
		assert.Equal(t, []auth.Principal{first, second}, seen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bind failure skips fn and discards", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		tenant, user := bindArgs(p)
		mock.ExpectQuery(regexp.QuoteMeta(BindStatement)).
			WithArgs(tenant, user).
			WillReturnError(errors.New("permission denied for function set_config"))
		mock.ExpectClose()

		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics(reg)
		gw := NewGateway(db, logger, metrics)

		called := false
		err := gw.Run(ctx, p, func(context.Context, *BoundConn) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, ErrBind)
		assert.False(t, called)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionBinds.WithLabelValues("error")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ConnectionDiscards.WithLabelValues("bind")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fn error discards and is returned unchanged", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		expectBind(mock, p)
		mock.ExpectClose()

		sentinel := errors.New("row mapping failed")
		gw := NewGateway(db, logger, nil)
		err := gw.Run(ctx, p, func(context.Context, *BoundConn) error {
			return sentinel
		})

		assert.Same(t, sentinel, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancellation after bind discards", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		expectBind(mock, p)
		mock.ExpectClose()

		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics(reg)
		gw := NewGateway(db, logger, metrics)

		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		err := gw.Run(cctx, p, func(context.Context, *BoundConn) error {
			cancel()
			return nil
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ConnectionDiscards.WithLabelValues("cancelled")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("panic discards and propagates", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		expectBind(mock, p)
		mock.ExpectClose()

		gw := NewGateway(db, logger, nil)
		assert.PanicsWithValue(t, "boom", func() {
			_ = gw.Run(ctx, p, func(context.Context, *BoundConn) error {
				panic("boom")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("principal without tenant is refused before checkout", func(t *testing.T) {
		db, mock := newMockDB(t)

		gw := NewGateway(db, logger, nil)
		err := gw.Run(ctx, auth.Principal{}, func(context.Context, *BoundConn) error {
			t.Fatal("fn must not run")
			return nil
		})

		assert.ErrorIs(t, err, ErrNoTenant)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("acquire failure surfaces as unavailable", func(t *testing.T) {
		gw := NewGateway(failingConnector{}, logger, nil)
		err := gw.Run(ctx, testPrincipal(), func(context.Context, *BoundConn) error { return nil })
		assert.ErrorIs(t, err, ErrAcquire)
	})
}

func TestRunResult(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("returns the callback value", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		expectBind(mock, p)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM security.role`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		gw := NewGateway(db, logger, nil)
		n, err := RunResult(ctx, gw, p, func(ctx context.Context, conn *BoundConn) (int, error) {
			var n int
			err := conn.QueryRowContext(ctx, `SELECT count(*) FROM security.role`).Scan(&n)
			return n, err
		})

		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero value on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		expectBind(mock, p)
		mock.ExpectClose()

		gw := NewGateway(db, logger, nil)
		n, err := RunResult(ctx, gw, p, func(context.Context, *BoundConn) (int, error) {
			return 42, errors.New("partial")
		})

		assert.Error(t, err)
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	insert := `INSERT INTO security.role (id, name) VALUES ($1, $2)`

	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		expectBind(mock, p)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insert)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		gw := NewGateway(db, logger, nil)
		err := gw.Run(ctx, p, func(ctx context.Context, conn *BoundConn) error {
			return WithTx(ctx, conn, func(tx Querier) error {
				_, err := tx.ExecContext(ctx, insert, "id", "claims-adjuster")
				return err
			})
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and discards on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		p := testPrincipal()
		expectBind(mock, p)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insert)).WillReturnError(errors.New("duplicate key"))
		mock.ExpectRollback()
		mock.ExpectClose()

		gw := NewGateway(db, logger, nil)
		err := gw.Run(ctx, p, func(ctx context.Context, conn *BoundConn) error {
			return WithTx(ctx, conn, func(tx Querier) error {
				_, err := tx.ExecContext(ctx, insert, "id", "claims-adjuster")
				return err
			})
		})

		assert.EqualError(t, err, "duplicate key")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
