package postgres

import (
	"context"

	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// ReferenceRepository implements the repositories.ReferenceRepository interface.
// Reference tables are global; they carry no RLS policy.
type ReferenceRepository struct {
	logger *zap.Logger
}

// NewReferenceRepository creates a new reference data repository
func NewReferenceRepository(logger *zap.Logger) repositories.ReferenceRepository {
	return &ReferenceRepository{logger: logger}
}

// ListCountries retrieves all countries
func (r *ReferenceRepository) ListCountries(ctx context.Context, q tenancy.Querier) ([]*models.Country, error) {
	rows, err := q.QueryContext(ctx, `SELECT code, name, numeric_code FROM reference.country ORDER BY name`)
	if err != nil {
		return nil, wrapError("failed to list countries", err)
	}
	defer rows.Close()

	countries := []*models.Country{}
	for rows.Next() {
		c := &models.Country{}
		if err := rows.Scan(&c.Code, &c.Name, &c.NumericCode); err != nil {
			return nil, wrapError("failed to scan country", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate countries", err)
	}
	return countries, nil
}

// ListCurrencies retrieves all currencies
func (r *ReferenceRepository) ListCurrencies(ctx context.Context, q tenancy.Querier) ([]*models.Currency, error) {
	rows, err := q.QueryContext(ctx, `SELECT code, name, symbol, minor_unit FROM reference.currency ORDER BY code`)
	if err != nil {
		return nil, wrapError("failed to list currencies", err)
	}
	defer rows.Close()

	currencies := []*models.Currency{}
	for rows.Next() {
		c := &models.Currency{}
		if err := rows.Scan(&c.Code, &c.Name, &c.Symbol, &c.MinorUnit); err != nil {
			return nil, wrapError("failed to scan currency", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate currencies", err)
	}
	return currencies, nil
}

// ListLanguages retrieves all languages
func (r *ReferenceRepository) ListLanguages(ctx context.Context, q tenancy.Querier) ([]*models.Language, error) {
	rows, err := q.QueryContext(ctx, `SELECT code, name FROM reference.language ORDER BY name`)
	if err != nil {
		return nil, wrapError("failed to list languages", err)
	}
	defer rows.Close()

	languages := []*models.Language{}
	for rows.Next() {
		l := &models.Language{}
		if err := rows.Scan(&l.Code, &l.Name); err != nil {
			return nil, wrapError("failed to scan language", err)
		}
		languages = append(languages, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate languages", err)
	}
	return languages, nil
}
