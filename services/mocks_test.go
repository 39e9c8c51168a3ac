package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
)

// MockUserAccountRepository is a mock implementation of UserAccountRepository
type MockUserAccountRepository struct {
	mock.Mock
}

func (m *MockUserAccountRepository) Create(ctx context.Context, q tenancy.Querier, user *models.UserAccount) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserAccountRepository) FindLocalByEmail(ctx context.Context, q tenancy.Querier, email string) (*models.UserAccount, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAccount), args.Error(1)
}

func (m *MockUserAccountRepository) List(ctx context.Context, q tenancy.Querier) ([]*models.UserAccount, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserAccount), args.Error(1)
}

// MockPermissionRepository is a mock implementation of PermissionRepository
type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) UserHasPermission(ctx context.Context, q tenancy.Querier, userID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, q, userID, name)
	return args.Bool(0), args.Error(1)
}

// MockRoleRepository is a mock implementation of RoleRepository
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) List(ctx context.Context, q tenancy.Querier) ([]*models.Role, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Role), args.Error(1)
}

func (m *MockRoleRepository) Create(ctx context.Context, q tenancy.Querier, role *models.Role) error {
	args := m.Called(ctx, q, role)
	return args.Error(0)
}

// MockCodeSetRepository is a mock implementation of CodeSetRepository
type MockCodeSetRepository struct {
	mock.Mock
}

func (m *MockCodeSetRepository) List(ctx context.Context, q tenancy.Querier) ([]*models.CodeSet, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CodeSet), args.Error(1)
}

func (m *MockCodeSetRepository) Create(ctx context.Context, q tenancy.Querier, cs *models.CodeSet) error {
	args := m.Called(ctx, q, cs)
	return args.Error(0)
}

// MockReferenceRepository is a mock implementation of ReferenceRepository
type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) ListCountries(ctx context.Context, q tenancy.Querier) ([]*models.Country, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Country), args.Error(1)
}

func (m *MockReferenceRepository) ListCurrencies(ctx context.Context, q tenancy.Querier) ([]*models.Currency, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Currency), args.Error(1)
}

func (m *MockReferenceRepository) ListLanguages(ctx context.Context, q tenancy.Querier) ([]*models.Language, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Language), args.Error(1)
}

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, q tenancy.Querier, log *models.AuditLog) error {
	args := m.Called(ctx, q, log)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, q tenancy.Querier, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, q, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

// MockOutboxRepository is a mock implementation of OutboxRepository
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, q tenancy.Querier, event *models.OutboxEvent) error {
	args := m.Called(ctx, q, event)
	return args.Error(0)
}

func (m *MockOutboxRepository) List(ctx context.Context, q tenancy.Querier, status models.OutboxStatus, limit, offset int) ([]*models.OutboxEvent, error) {
	args := m.Called(ctx, q, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OutboxEvent), args.Error(1)
}

// MockLoginRecorder is a mock implementation of LoginRecorder
type MockLoginRecorder struct {
	mock.Mock
}

func (m *MockLoginRecorder) LogLoginSucceeded(p auth.Principal, requestID string) error {
	args := m.Called(p, requestID)
	return args.Error(0)
}

func (m *MockLoginRecorder) LogLoginFailed(tenantID uuid.UUID, email, reason, requestID string) error {
	args := m.Called(tenantID, email, reason, requestID)
	return args.Error(0)
}

type mockRepos struct {
	users       *MockUserAccountRepository
	permissions *MockPermissionRepository
	roles       *MockRoleRepository
	codeSets    *MockCodeSetRepository
	reference   *MockReferenceRepository
	audits      *MockAuditRepository
	outbox      *MockOutboxRepository
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		users:       new(MockUserAccountRepository),
		permissions: new(MockPermissionRepository),
		roles:       new(MockRoleRepository),
		codeSets:    new(MockCodeSetRepository),
		reference:   new(MockReferenceRepository),
		audits:      new(MockAuditRepository),
		outbox:      new(MockOutboxRepository),
	}
}

func (m *mockRepos) repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:       m.users,
		Permissions: m.permissions,
		Roles:       m.roles,
		CodeSets:    m.codeSets,
		Reference:   m.reference,
		AuditLogs:   m.audits,
		Outbox:      m.outbox,
	}
}

// expectJournal accepts one audit entry and one outbox event
func (m *mockRepos) expectJournal(action models.AuditAction) {
	m.audits.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(l *models.AuditLog) bool {
		return l.Action == action
	})).Return(nil).Once()
	m.outbox.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.OutboxEvent")).Return(nil).Once()
}

func (m *mockRepos) assertExpectations(t mock.TestingT) {
	m.users.AssertExpectations(t)
	m.permissions.AssertExpectations(t)
	m.roles.AssertExpectations(t)
	m.codeSets.AssertExpectations(t)
	m.reference.AssertExpectations(t)
	m.audits.AssertExpectations(t)
	m.outbox.AssertExpectations(t)
}

func testUser() auth.Principal {
	return auth.Principal{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Email:    "agent@insurer.test",
		Provider: auth.ProviderLocal,
	}
}
