package handlers

import (
	"context"
	"net/http"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/utils"
	"go.uber.org/zap"
)

// CatalogService reads global reference data
type CatalogService interface {
	ListCountries(ctx context.Context, p auth.Principal) ([]*models.Country, error)
	ListCurrencies(ctx context.Context, p auth.Principal) ([]*models.Currency, error)
	ListLanguages(ctx context.Context, p auth.Principal) ([]*models.Language, error)
}

// CatalogHandler serves countries, currencies and languages
type CatalogHandler struct {
	service CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(service CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

// HandleListCountries handles GET /api/countries
func (h *CatalogHandler) HandleListCountries(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.logger, h.service.ListCountries)
}

// HandleListCurrencies handles GET /api/currencies
func (h *CatalogHandler) HandleListCurrencies(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.logger, h.service.ListCurrencies)
}

// HandleListLanguages handles GET /api/languages
func (h *CatalogHandler) HandleListLanguages(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.logger, h.service.ListLanguages)
}

func serveList[T any](w http.ResponseWriter, r *http.Request, logger *zap.Logger, list func(context.Context, auth.Principal) ([]T, error)) {
	p, ok := requirePrincipal(w, r, logger)
	if !ok {
		return
	}

	items, err := list(r.Context(), p)
	if err != nil {
		HandleServiceError(w, err, logger)
		return
	}

	_ = utils.WriteOK(w, nonNil(items))
}
