package services

import (
	"context"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
)

// CatalogService serves global reference data. The tables are not tenant
// scoped but reads still go through the gateway like every other query.
type CatalogService struct {
	gateway   *tenancy.Gateway
	reference repositories.ReferenceRepository
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(gateway *tenancy.Gateway, reference repositories.ReferenceRepository) *CatalogService {
	return &CatalogService{gateway: gateway, reference: reference}
}

func (s *CatalogService) ListCountries(ctx context.Context, p auth.Principal) ([]*models.Country, error) {
	return listReference(ctx, s.gateway, p, s.reference.ListCountries)
}

func (s *CatalogService) ListCurrencies(ctx context.Context, p auth.Principal) ([]*models.Currency, error) {
	return listReference(ctx, s.gateway, p, s.reference.ListCurrencies)
}

func (s *CatalogService) ListLanguages(ctx context.Context, p auth.Principal) ([]*models.Language, error) {
	return listReference(ctx, s.gateway, p, s.reference.ListLanguages)
}

func listReference[T any](ctx context.Context, g *tenancy.Gateway, p auth.Principal, list func(context.Context, tenancy.Querier) ([]T, error)) ([]T, error) {
	items, err := tenancy.RunResult(ctx, g, p, func(ctx context.Context, conn *tenancy.BoundConn) ([]T, error) {
		return list(ctx, conn)
	})
	if err != nil {
		return nil, FromStorageError(err)
	}
	return items, nil
}
