// Package tenancytest provides sqlmock helpers for code that runs through
// tenancy.Gateway.
package tenancytest

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/tenancy"
	"go.uber.org/zap"
)

// NewMockDB opens a sqlmock database closed on test cleanup.
func NewMockDB(t testing.TB) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// NewGateway returns a Gateway over a fresh sqlmock database.
func NewGateway(t testing.TB) (*tenancy.Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := NewMockDB(t)
	return tenancy.NewGateway(db, zap.NewNop(), nil), mock
}

// BindArgs returns the tenant and user strings bound for p.
func BindArgs(p auth.Principal) (string, string) {
	user := ""
	if p.UserID != uuid.Nil {
		user = p.UserID.String()
	}
	return p.TenantID.String(), user
}

// ExpectBind expects a successful session bind for p.
func ExpectBind(mock sqlmock.Sqlmock, p auth.Principal) {
	tenant, user := BindArgs(p)
	mock.ExpectQuery(regexp.QuoteMeta(tenancy.BindStatement)).
		WithArgs(tenant, user).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "user_id"}).AddRow(tenant, user))
}

// ExpectBindError expects a bind for p that fails with err.
func ExpectBindError(mock sqlmock.Sqlmock, p auth.Principal, err error) {
	tenant, user := BindArgs(p)
	mock.ExpectQuery(regexp.QuoteMeta(tenancy.BindStatement)).
		WithArgs(tenant, user).
		WillReturnError(err)
}
