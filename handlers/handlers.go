// Package handlers contains the thin HTTP layer: decode, validate, call a
// service with the request principal, and map the result to JSON.
package handlers

import (
	"net/http"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/middleware"
	"github.com/upb/insurance-platform/utils"
	"go.uber.org/zap"
)

// requirePrincipal returns the principal placed by RequireAuth. A missing
// principal means the route was mounted without the middleware.
func requirePrincipal(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (auth.Principal, bool) {
	p, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		logger.Error("principal not found in context",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path))
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return auth.Principal{}, false
	}
	return p, true
}

// decodeAndValidate decodes the JSON body into dst and runs struct validation
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}
