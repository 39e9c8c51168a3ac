package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/repositories"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeUnauthorized       ErrorType = "unauthorized"
	ErrorTypeForbidden          ErrorType = "forbidden"
	ErrorTypeRateLimit          ErrorType = "rate_limit"
	ErrorTypeConflict           ErrorType = "conflict"
	ErrorTypeBind               ErrorType = "bind"
	ErrorTypeStorageUnavailable ErrorType = "storage_unavailable"
	ErrorTypeInternal           ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error. Call it on errors built with
// NewDomainError or Wrap, never on the shared sentinels below.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Wrap copies sentinel's type and message onto a fresh error carrying cause
func Wrap(sentinel *DomainError, cause error) *DomainError {
	return NewDomainError(sentinel.Type, sentinel.Message, cause)
}

// Domain error variables

var (
	// Not Found Errors
	ErrNotFound = NewDomainError(ErrorTypeNotFound, "resource not found", nil)

	// Validation Errors
	ErrInvalidInput  = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidTenant = NewDomainError(ErrorTypeValidation, "invalid tenant identifier", nil)

	// Authentication Errors. Messages never say which credential was wrong.
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid email or password", nil)
	ErrInvalidToken       = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrUnauthenticated    = NewDomainError(ErrorTypeUnauthorized, "authentication required", nil)

	// Permission Errors
	ErrForbidden      = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrTenantMismatch = NewDomainError(ErrorTypeForbidden, "tenant does not match credentials", nil)
	ErrNoTenant       = NewDomainError(ErrorTypeForbidden, "no tenant associated with credentials", nil)

	// Rate Limit Errors
	ErrTooManyLoginAttempts = NewDomainError(ErrorTypeRateLimit, "too many login attempts", nil)

	// Conflict Errors
	ErrConflict         = NewDomainError(ErrorTypeConflict, "resource already exists", nil)
	ErrDuplicateEmail   = NewDomainError(ErrorTypeConflict, "email already registered", nil)
	ErrDuplicateRole    = NewDomainError(ErrorTypeConflict, "role already exists", nil)
	ErrDuplicateCodeSet = NewDomainError(ErrorTypeConflict, "code set already exists", nil)

	// Session and storage errors. Both are fatal for the request.
	ErrSessionBind        = NewDomainError(ErrorTypeBind, "failed to establish session context", nil)
	ErrStorageUnavailable = NewDomainError(ErrorTypeStorageUnavailable, "storage unavailable", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// FromStorageError translates gateway and repository failures into domain
// errors. Domain errors pass through unchanged.
func FromStorageError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case errors.Is(err, tenancy.ErrNoTenant):
		return Wrap(ErrNoTenant, err)
	case errors.Is(err, tenancy.ErrBind):
		return Wrap(ErrSessionBind, err)
	case errors.Is(err, tenancy.ErrAcquire):
		return Wrap(ErrStorageUnavailable, err)
	case errors.Is(err, repositories.ErrNotFound):
		return Wrap(ErrNotFound, err)
	case errors.Is(err, repositories.ErrDuplicate):
		return Wrap(ErrConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrStorageUnavailable, err)
	default:
		return WrapInternal("database error", err)
	}
}

// Error type checking helper functions

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return hasType(err, ErrorTypeValidation) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return hasType(err, ErrorTypeUnauthorized) }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return hasType(err, ErrorTypeForbidden) }

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool { return hasType(err, ErrorTypeRateLimit) }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return hasType(err, ErrorTypeConflict) }

// IsBindError checks if an error is a session bind error
func IsBindError(err error) bool { return hasType(err, ErrorTypeBind) }

// IsStorageUnavailableError checks if an error is a storage availability error
func IsStorageUnavailableError(err error) bool { return hasType(err, ErrorTypeStorageUnavailable) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return hasType(err, ErrorTypeInternal) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
