package postgres

import (
	"github.com/upb/insurance-platform/config"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the pool described by cfg
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositoryFactoryWithDB builds a factory around an existing pool
func NewRepositoryFactoryWithDB(db *DB, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, logger: logger}
}

// NewRepositories creates all repository instances. Repositories hold no
// connection; each call receives the bound querier to run on.
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:       NewUserAccountRepository(f.logger),
		Permissions: NewPermissionRepository(f.logger),
		Roles:       NewRoleRepository(f.logger),
		CodeSets:    NewCodeSetRepository(f.logger),
		Reference:   NewReferenceRepository(f.logger),
		AuditLogs:   NewAuditRepository(f.logger),
		Outbox:      NewOutboxRepository(f.logger),
	}
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
