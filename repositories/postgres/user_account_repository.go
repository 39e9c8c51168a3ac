package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

const userAccountColumns = `id, tenant_id, username, email, display_name, password_hash,
		       is_active, auth_provider, is_deleted, created_at`

// UserAccountRepository implements the repositories.UserAccountRepository interface
type UserAccountRepository struct {
	logger *zap.Logger
}

// NewUserAccountRepository creates a new user account repository
func NewUserAccountRepository(logger *zap.Logger) repositories.UserAccountRepository {
	return &UserAccountRepository{logger: logger}
}

// Create creates a new user account
func (r *UserAccountRepository) Create(ctx context.Context, q tenancy.Querier, user *models.UserAccount) error {
	query := `
		INSERT INTO security.user_account (
			id, tenant_id, username, email, display_name, password_hash,
			is_active, auth_provider, is_deleted, created_at
		) VALUES (
			$1, current_setting('app.tenant_id')::uuid, $2, $3, $4, $5, $6, $7, false, $8
		)
		RETURNING tenant_id
	`

	err := q.QueryRowContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.IsActive,
		string(user.AuthProvider),
		user.CreatedAt,
	).Scan(&user.TenantID)
	if err != nil {
		return wrapError("failed to create user account", err)
	}

	r.logger.Debug("user account created",
		zap.String("id", user.ID.String()),
		zap.String("tenant_id", user.TenantID.String()))
	return nil
}

// FindLocalByEmail retrieves the LOCAL account registered under email
func (r *UserAccountRepository) FindLocalByEmail(ctx context.Context, q tenancy.Querier, email string) (*models.UserAccount, error) {
	query := `
		SELECT ` + userAccountColumns + `
		FROM security.user_account
		WHERE lower(email) = lower($1)
		  AND auth_provider = $2
		  AND is_deleted = false
		LIMIT 1
	`

	user, err := scanUserAccount(q.QueryRowContext(ctx, query, email, string(auth.ProviderLocal)))
	if err != nil {
		return nil, wrapError("failed to find user account", err)
	}
	return user, nil
}

// List retrieves the tenant's accounts
func (r *UserAccountRepository) List(ctx context.Context, q tenancy.Querier) ([]*models.UserAccount, error) {
	query := `
		SELECT ` + userAccountColumns + `
		FROM security.user_account
		WHERE is_deleted = false
		ORDER BY email
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapError("failed to list user accounts", err)
	}
	defer rows.Close()

	users := []*models.UserAccount{}
	for rows.Next() {
		user, err := scanUserAccount(rows)
		if err != nil {
			return nil, wrapError("failed to scan user account", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate user accounts", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserAccount(s rowScanner) (*models.UserAccount, error) {
	user := &models.UserAccount{}
	var hash sql.NullString
	var provider string
	err := s.Scan(
		&user.ID,
		&user.TenantID,
		&user.Username,
		&user.Email,
		&user.DisplayName,
		&hash,
		&user.IsActive,
		&provider,
		&user.IsDeleted,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if hash.Valid {
		user.PasswordHash = &hash.String
	}
	user.AuthProvider = auth.Provider(provider)
	if !user.AuthProvider.Valid() {
		return nil, fmt.Errorf("unknown auth provider %q", provider)
	}
	return user, nil
}
