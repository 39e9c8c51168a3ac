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

// CreateCodeSetInput holds the data for a new code set
type CreateCodeSetInput struct {
	Code        string
	Name        string
	Description string
	RequestID   string
}

// CodeSetService manages tenant code sets
type CodeSetService struct {
	gateway  *tenancy.Gateway
	codeSets repositories.CodeSetRepository
	journal  journal
	logger   *zap.Logger
}

// NewCodeSetService creates a new CodeSetService instance
func NewCodeSetService(gateway *tenancy.Gateway, repos *repositories.Repositories, logger *zap.Logger) *CodeSetService {
	return &CodeSetService{
		gateway:  gateway,
		codeSets: repos.CodeSets,
		journal:  journal{audits: repos.AuditLogs, outbox: repos.Outbox},
		logger:   logger,
	}
}

// List returns the code sets visible to p's tenant
func (s *CodeSetService) List(ctx context.Context, p auth.Principal) ([]*models.CodeSet, error) {
	sets, err := tenancy.RunResult(ctx, s.gateway, p, func(ctx context.Context, conn *tenancy.BoundConn) ([]*models.CodeSet, error) {
		return s.codeSets.List(ctx, conn)
	})
	if err != nil {
		return nil, FromStorageError(err)
	}
	return sets, nil
}

// Create inserts a code set with its audit entry and outbox event
func (s *CodeSetService) Create(ctx context.Context, p auth.Principal, in CreateCodeSetInput) (*models.CodeSet, error) {
	cs := models.NewCodeSet(in.Code, in.Name, in.Description)

	err := s.gateway.Run(ctx, p, func(ctx context.Context, conn *tenancy.BoundConn) error {
		return tenancy.WithTx(ctx, conn, func(tx tenancy.Querier) error {
			if err := s.codeSets.Create(ctx, tx, cs); err != nil {
				return err
			}
			return s.journal.record(ctx, tx, p, change{
				Action:     models.AuditActionCodeSetCreated,
				EntityType: "code_set",
				EntityID:   cs.ID,
				EventType:  "CodeSetCreated",
				Payload:    cs,
				RequestID:  in.RequestID,
			})
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, Wrap(ErrDuplicateCodeSet, err).WithDetail("code", in.Code)
		}
		return nil, FromStorageError(err)
	}

	s.logger.Info("code set created",
		zap.String("tenant_id", cs.TenantID.String()),
		zap.String("code_set_id", cs.ID.String()),
		zap.String("user_id", p.UserID.String()))

	return cs, nil
}
