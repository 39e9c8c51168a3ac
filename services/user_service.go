package services

import (
	"context"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
)

// UserService reads security user accounts
type UserService struct {
	gateway *tenancy.Gateway
	users   repositories.UserAccountRepository
}

// NewUserService creates a new UserService instance
func NewUserService(gateway *tenancy.Gateway, users repositories.UserAccountRepository) *UserService {
	return &UserService{gateway: gateway, users: users}
}

// List returns the accounts of p's tenant
func (s *UserService) List(ctx context.Context, p auth.Principal) ([]*models.UserAccount, error) {
	users, err := tenancy.RunResult(ctx, s.gateway, p, func(ctx context.Context, conn *tenancy.BoundConn) ([]*models.UserAccount, error) {
		return s.users.List(ctx, conn)
	})
	if err != nil {
		return nil, FromStorageError(err)
	}
	return users, nil
}
