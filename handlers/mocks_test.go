package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/middleware"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/services"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*models.UserAccount, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAccount), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoginResult), args.Error(1)
}

type MockUserLister struct {
	mock.Mock
}

func (m *MockUserLister) List(ctx context.Context, p auth.Principal) ([]*models.UserAccount, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserAccount), args.Error(1)
}

type MockRoleService struct {
	mock.Mock
}

func (m *MockRoleService) List(ctx context.Context, p auth.Principal) ([]*models.Role, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Role), args.Error(1)
}

func (m *MockRoleService) Create(ctx context.Context, p auth.Principal, in services.CreateRoleInput) (*models.Role, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

type MockCodeSetService struct {
	mock.Mock
}

func (m *MockCodeSetService) List(ctx context.Context, p auth.Principal) ([]*models.CodeSet, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CodeSet), args.Error(1)
}

func (m *MockCodeSetService) Create(ctx context.Context, p auth.Principal, in services.CreateCodeSetInput) (*models.CodeSet, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CodeSet), args.Error(1)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListCountries(ctx context.Context, p auth.Principal) ([]*models.Country, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Country), args.Error(1)
}

func (m *MockCatalogService) ListCurrencies(ctx context.Context, p auth.Principal) ([]*models.Currency, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Currency), args.Error(1)
}

func (m *MockCatalogService) ListLanguages(ctx context.Context, p auth.Principal) ([]*models.Language, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Language), args.Error(1)
}

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) ListAuditLogs(ctx context.Context, p auth.Principal, page services.Page) ([]*models.AuditLog, error) {
	args := m.Called(ctx, p, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockJournalService) ListOutboxEvents(ctx context.Context, p auth.Principal, status models.OutboxStatus, page services.Page) ([]*models.OutboxEvent, error) {
	args := m.Called(ctx, p, status, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OutboxEvent), args.Error(1)
}

func testPrincipal() auth.Principal {
	return auth.Principal{
		UserID:      uuid.New(),
		TenantID:    uuid.New(),
		Email:       "underwriter@example.com",
		DisplayName: "Ana Underwriter",
		Provider:    auth.ProviderLocal,
	}
}

// newRequest builds a request carrying p as the authenticated principal.
// A zero principal leaves the context unauthenticated.
func newRequest(t *testing.T, method, target string, body interface{}, p auth.Principal) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if p.HasTenant() {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), p))
	}
	return req
}

// decodeData unwraps the {"data": ...} envelope into dst
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}
