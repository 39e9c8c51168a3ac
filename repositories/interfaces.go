package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
)

var (
	// ErrNotFound is returned when a lookup matches no visible row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint rejects an insert
	ErrDuplicate = errors.New("record already exists")
)

// Every method takes the tenancy.Querier it must run on. Callers obtain one
// from tenancy.Gateway.Run, so statements always execute on a connection
// whose session context is bound; row filtering by tenant is left to RLS.

// UserAccountRepository handles user account data operations
type UserAccountRepository interface {
	// Create inserts a new account for the bound tenant and fills TenantID
	Create(ctx context.Context, q tenancy.Querier, user *models.UserAccount) error

	// FindLocalByEmail returns the non-deleted LOCAL account with that email
	// (case-insensitive), active or not. ErrNotFound when none exists.
	FindLocalByEmail(ctx context.Context, q tenancy.Querier, email string) (*models.UserAccount, error)

	// List returns the tenant's non-deleted accounts
	List(ctx context.Context, q tenancy.Querier) ([]*models.UserAccount, error)
}

// PermissionRepository answers grant lookups
type PermissionRepository interface {
	// UserHasPermission reports whether an undeleted user_role, role,
	// role_permission and permission chain links the user to name
	UserHasPermission(ctx context.Context, q tenancy.Querier, userID uuid.UUID, name string) (bool, error)
}

// RoleRepository handles role data operations
type RoleRepository interface {
	// List returns the tenant's non-deleted roles ordered by name
	List(ctx context.Context, q tenancy.Querier) ([]*models.Role, error)

	// Create inserts a role for the bound tenant. ErrDuplicate on name clash.
	Create(ctx context.Context, q tenancy.Querier, role *models.Role) error
}

// CodeSetRepository handles code set data operations
type CodeSetRepository interface {
	// List returns the tenant's non-deleted code sets ordered by code
	List(ctx context.Context, q tenancy.Querier) ([]*models.CodeSet, error)

	// Create inserts a code set for the bound tenant. ErrDuplicate on code clash.
	Create(ctx context.Context, q tenancy.Querier, cs *models.CodeSet) error
}

// ReferenceRepository reads global reference data
type ReferenceRepository interface {
	ListCountries(ctx context.Context, q tenancy.Querier) ([]*models.Country, error)
	ListCurrencies(ctx context.Context, q tenancy.Querier) ([]*models.Currency, error)
	ListLanguages(ctx context.Context, q tenancy.Querier) ([]*models.Language, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Create inserts an audit entry for the bound tenant
	Create(ctx context.Context, q tenancy.Querier, log *models.AuditLog) error

	// List returns the newest entries first with pagination
	List(ctx context.Context, q tenancy.Querier, limit, offset int) ([]*models.AuditLog, error)
}

// OutboxRepository handles integration outbox data operations
type OutboxRepository interface {
	// Create inserts a pending event for the bound tenant
	Create(ctx context.Context, q tenancy.Querier, event *models.OutboxEvent) error

	// List returns events newest first. An empty status matches all.
	List(ctx context.Context, q tenancy.Querier, status models.OutboxStatus, limit, offset int) ([]*models.OutboxEvent, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users       UserAccountRepository
	Permissions PermissionRepository
	Roles       RoleRepository
	CodeSets    CodeSetRepository
	Reference   ReferenceRepository
	AuditLogs   AuditRepository
	Outbox      OutboxRepository
}
