package middleware

import (
	"net/http"

	"github.com/upb/insurance-platform/services"
	"github.com/upb/insurance-platform/utils"
)

// writeAuthError renders the domain errors middleware can raise. Handlers
// map the full taxonomy through handlers.HandleServiceError.
func writeAuthError(w http.ResponseWriter, err *services.DomainError) {
	switch err.Type {
	case services.ErrorTypeUnauthorized:
		_ = utils.WriteUnauthorized(w, err.Message)
	case services.ErrorTypeValidation:
		_ = utils.WriteBadRequest(w, err.Message, nil)
	default:
		_ = utils.WriteForbidden(w, err.Message)
	}
}
