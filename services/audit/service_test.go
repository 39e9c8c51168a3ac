package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/internal/tenancy/tenancytest"
	"github.com/upb/insurance-platform/models"
	"go.uber.org/zap"
)

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
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func testConfig() Config {
	return Config{BufferSize: 10, WorkerCount: 1, WriteTimeout: time.Second}
}

func principal() auth.Principal {
	return auth.Principal{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Email:    "a@x.com",
		Provider: auth.ProviderLocal,
	}
}

func TestAuditService_StartStop(t *testing.T) {
	gw, _ := tenancytest.NewGateway(t)
	service := NewAuditService(gw, new(MockAuditRepository), zap.NewNop(), testConfig())

	require.NoError(t, service.Start())
	assert.True(t, service.GetStats().Started)
	assert.Error(t, service.Start(), "second start")

	require.NoError(t, service.Stop(time.Second))
	assert.False(t, service.GetStats().Started)
	assert.Error(t, service.Stop(time.Second), "second stop")
}

func TestAuditService_LogEventRequiresStart(t *testing.T) {
	gw, _ := tenancytest.NewGateway(t)
	service := NewAuditService(gw, new(MockAuditRepository), zap.NewNop(), testConfig())

	err := service.LogLoginSucceeded(principal(), "req-1")
	assert.Error(t, err)
}

func TestAuditService_LogLoginSucceeded(t *testing.T) {
	gw, sqlMock := tenancytest.NewGateway(t)
	repo := new(MockAuditRepository)
	service := NewAuditService(gw, repo, zap.NewNop(), testConfig())
	p := principal()

	tenancytest.ExpectBind(sqlMock, p)
	written := make(chan *models.AuditLog, 1)
	repo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*models.AuditLog")).
		Run(func(args mock.Arguments) { written <- args.Get(2).(*models.AuditLog) }).
		Return(nil)

	require.NoError(t, service.Start())
	require.NoError(t, service.LogLoginSucceeded(p, "req-1"))
	require.NoError(t, service.Stop(time.Second))

	select {
	case log := <-written:
		assert.Equal(t, models.AuditActionLoginSucceeded, log.Action)
		require.NotNil(t, log.UserID)
		assert.Equal(t, p.UserID, *log.UserID)
		assert.Equal(t, "req-1", log.RequestID)
	default:
		t.Fatal("audit entry was not written")
	}
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	repo.AssertExpectations(t)
}

func TestAuditService_LogLoginFailedBindsAnonymousTenant(t *testing.T) {
	gw, sqlMock := tenancytest.NewGateway(t)
	repo := new(MockAuditRepository)
	service := NewAuditService(gw, repo, zap.NewNop(), testConfig())
	tenant := uuid.New()

	tenancytest.ExpectBind(sqlMock, auth.Anonymous(tenant))
	repo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(log *models.AuditLog) bool {
		return log.Action == models.AuditActionLoginFailed && log.UserID == nil
	})).Return(nil)

	require.NoError(t, service.Start())
	require.NoError(t, service.LogLoginFailed(tenant, "A@X.com", "invalid_credentials", ""))
	require.NoError(t, service.Stop(time.Second))

	assert.NoError(t, sqlMock.ExpectationsWereMet())
	repo.AssertExpectations(t)
}

func TestAuditService_WriteFailureIsLogged(t *testing.T) {
	gw, sqlMock := tenancytest.NewGateway(t)
	repo := new(MockAuditRepository)
	service := NewAuditService(gw, repo, zap.NewNop(), testConfig())
	p := principal()

	tenancytest.ExpectBind(sqlMock, p)
	sqlMock.ExpectClose()
	repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	require.NoError(t, service.Start())
	require.NoError(t, service.LogLoginSucceeded(p, ""))
	require.NoError(t, service.Stop(time.Second))

	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestAuditService_RejectsEventWithoutTenant(t *testing.T) {
	gw, _ := tenancytest.NewGateway(t)
	service := NewAuditService(gw, new(MockAuditRepository), zap.NewNop(), testConfig())
	require.NoError(t, service.Start())
	defer service.Stop(time.Second)

	err := service.LogEvent(&AuditEvent{
		Principal: auth.Principal{},
		Log:       models.NewAuditLog(models.AuditActionLoginFailed, "user_account", uuid.Nil),
	})
	assert.Error(t, err)
}

func TestAuditService_BufferFull(t *testing.T) {
	gw, _ := tenancytest.NewGateway(t)
	service := NewAuditService(gw, new(MockAuditRepository), zap.NewNop(), Config{BufferSize: 1, WorkerCount: 0})
	require.NoError(t, service.Start())

	p := principal()
	require.NoError(t, service.LogLoginSucceeded(p, ""))
	assert.Error(t, service.LogLoginSucceeded(p, ""))
	assert.Equal(t, 1, service.GetStats().PendingEvents)
}
