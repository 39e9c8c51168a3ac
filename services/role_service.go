package services

import (
	"context"
	"errors"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// CreateRoleInput holds the data for a new role
type CreateRoleInput struct {
	Name        string
	Description string
	RequestID   string
}

// RoleService manages tenant roles
type RoleService struct {
	gateway *tenancy.Gateway
	roles   repositories.RoleRepository
	journal journal
	logger  *zap.Logger
}

// NewRoleService creates a new RoleService instance
func NewRoleService(gateway *tenancy.Gateway, repos *repositories.Repositories, logger *zap.Logger) *RoleService {
	return &RoleService{
		gateway: gateway,
		roles:   repos.Roles,
		journal: journal{audits: repos.AuditLogs, outbox: repos.Outbox},
		logger:  logger,
	}
}

// List returns the roles visible to p's tenant
func (s *RoleService) List(ctx context.Context, p auth.Principal) ([]*models.Role, error) {
	roles, err := tenancy.RunResult(ctx, s.gateway, p, func(ctx context.Context, conn *tenancy.BoundConn) ([]*models.Role, error) {
		return s.roles.List(ctx, conn)
	})
	if err != nil {
		return nil, FromStorageError(err)
	}
	return roles, nil
}

// Create inserts a role together with its audit entry and outbox event.
// Callers check roles:create before calling.
func (s *RoleService) Create(ctx context.Context, p auth.Principal, in CreateRoleInput) (*models.Role, error) {
	role := models.NewRole(in.Name, in.Description)

	err := s.gateway.Run(ctx, p, func(ctx context.Context, conn *tenancy.BoundConn) error {
		return tenancy.WithTx(ctx, conn, func(tx tenancy.Querier) error {
			if err := s.roles.Create(ctx, tx, role); err != nil {
				return err
			}
			return s.journal.record(ctx, tx, p, change{
				Action:     models.AuditActionRoleCreated,
				EntityType: "role",
				EntityID:   role.ID,
				EventType:  "RoleCreated",
				Payload:    role,
				RequestID:  in.RequestID,
			})
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, Wrap(ErrDuplicateRole, err).WithDetail("name", in.Name)
		}
		return nil, FromStorageError(err)
	}

	s.logger.Info("role created",
		zap.String("tenant_id", role.TenantID.String()),
		zap.String("role_id", role.ID.String()),
		zap.String("user_id", p.UserID.String()))

	return role, nil
}
