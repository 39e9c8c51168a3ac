package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/middleware"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/services"
	"github.com/upb/insurance-platform/utils"
	"go.uber.org/zap"
)

// RegisterRequest represents a local account registration
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName,omitempty" validate:"max=255"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	UserID uuid.UUID `json:"userId"`
}

// LoginRequest represents a local login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	TokenType string    `json:"tokenType"`
}

// AuthService defines the local authentication operations
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.UserAccount, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
}

// CookieConfig controls the session cookie set on login
type CookieConfig struct {
	Secure bool
	Domain string
}

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	service AuthService
	cookie  CookieConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookie:  cookie,
		logger:  logger,
		now:     time.Now,
	}
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req RegisterRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	user, err := h.service.Register(ctx, services.RegisterInput{
		TenantID:    middleware.GetTenantIDFromContext(ctx),
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		RequestID:   requestID,
	})
	if err != nil {
		h.logger.Info("registration failed",
			zap.String("request_id", requestID),
			zap.String("error_type", string(services.GetErrorType(err))))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user registered",
		zap.String("request_id", requestID),
		zap.String("tenant_id", user.TenantID.String()),
		zap.String("user_id", user.ID.String()))

	_ = utils.WriteOK(w, RegisterResponse{UserID: user.ID})
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Login(ctx, services.LoginInput{
		TenantID:  middleware.GetTenantIDFromContext(ctx),
		Email:     req.Email,
		Password:  req.Password,
		RequestID: requestID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	maxAge := int(result.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, h.sessionCookie(result.Token, maxAge))

	_ = utils.WriteOK(w, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		TokenType: "Bearer",
	})
}

// HandleLogout handles POST /auth/logout
// Tokens are stateless; logout only clears the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	utils.WriteNoContent(w)
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
