package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/observability"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
	"github.com/upb/insurance-platform/services/ratelimit"
	"go.uber.org/zap"
)

// LoginRecorder receives login outcomes off the request path
type LoginRecorder interface {
	LogLoginSucceeded(p auth.Principal, requestID string) error
	LogLoginFailed(tenantID uuid.UUID, email, reason, requestID string) error
}

// RegisterInput holds the data for a local account registration
type RegisterInput struct {
	TenantID    uuid.UUID
	Email       string
	Password    string
	DisplayName string
	RequestID   string
}

// LoginInput holds a password login attempt
type LoginInput struct {
	TenantID  uuid.UUID
	Email     string
	Password  string
	RequestID string
}

// LoginResult is a successful login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Principal auth.Principal
}

// AuthService handles local account registration and password login
type AuthService struct {
	gateway  *tenancy.Gateway
	users    repositories.UserAccountRepository
	journal  journal
	hasher   *auth.PasswordHasher
	issuer   *auth.TokenIssuer
	throttle *ratelimit.LoginThrottle
	recorder LoginRecorder
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// AuthServiceConfig holds the collaborators of AuthService.
// Throttle, Recorder and Metrics may be nil.
type AuthServiceConfig struct {
	Gateway  *tenancy.Gateway
	Repos    *repositories.Repositories
	Hasher   *auth.PasswordHasher
	Issuer   *auth.TokenIssuer
	Throttle *ratelimit.LoginThrottle
	Recorder LoginRecorder
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewAuthService creates a new AuthService instance
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		gateway:  cfg.Gateway,
		users:    cfg.Repos.Users,
		journal:  journal{audits: cfg.Repos.AuditLogs, outbox: cfg.Repos.Outbox},
		hasher:   cfg.Hasher,
		issuer:   cfg.Issuer,
		throttle: cfg.Throttle,
		recorder: cfg.Recorder,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// Register creates an active LOCAL account in the requested tenant.
// The password is hashed before a connection is checked out.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.UserAccount, error) {
	if in.TenantID == uuid.Nil {
		return nil, ErrInvalidTenant
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewLocalUserAccount(in.Email, in.DisplayName, hash)
	anon := auth.Anonymous(in.TenantID)

	err = s.gateway.Run(ctx, anon, func(ctx context.Context, conn *tenancy.BoundConn) error {
		return tenancy.WithTx(ctx, conn, func(tx tenancy.Querier) error {
			if err := s.users.Create(ctx, tx, user); err != nil {
				return err
			}
			// Attribute the entry to the new account
			actor := user.Principal()
			return s.journal.record(ctx, tx, actor, change{
				Action:     models.AuditActionUserRegistered,
				EntityType: "user_account",
				EntityID:   user.ID,
				EventType:  "UserRegistered",
				Payload: map[string]string{
					"userId": user.ID.String(),
					"email":  user.Email,
				},
				RequestID: in.RequestID,
			})
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, Wrap(ErrDuplicateEmail, err)
		}
		s.logger.Error("registration failed",
			zap.String("tenant_id", in.TenantID.String()),
			zap.String("request_id", in.RequestID),
			zap.Error(err))
		return nil, FromStorageError(err)
	}

	s.logger.Info("user registered",
		zap.String("tenant_id", user.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("request_id", in.RequestID))

	return user, nil
}

// VerifyCredentials resolves a principal from an email and password.
//
// Every rejection returns ErrInvalidCredentials. When no usable account
// exists a dummy hash comparison still runs so timing does not reveal
// whether the email is registered.
func (s *AuthService) VerifyCredentials(ctx context.Context, tenantID uuid.UUID, email, password string) (auth.Principal, error) {
	if tenantID == uuid.Nil {
		return auth.Principal{}, ErrInvalidTenant
	}

	user, err := tenancy.RunResult(ctx, s.gateway, auth.Anonymous(tenantID), func(ctx context.Context, conn *tenancy.BoundConn) (*models.UserAccount, error) {
		u, err := s.users.FindLocalByEmail(ctx, conn, models.NormalizeEmail(email))
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return u, err
	})
	if err != nil {
		return auth.Principal{}, FromStorageError(err)
	}

	if user == nil || !user.CanLoginLocally() {
		s.hasher.CompareDummy(password)
		return auth.Principal{}, ErrInvalidCredentials
	}
	if !s.hasher.Compare(*user.PasswordHash, password) {
		return auth.Principal{}, ErrInvalidCredentials
	}

	return user.Principal(), nil
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.TenantID == uuid.Nil {
		return nil, ErrInvalidTenant
	}

	if decision, ok := s.throttle.Allow(ctx, in.TenantID, in.Email); !ok {
		s.metrics.ObserveLogin("throttled")
		s.recordFailure(in, "throttled")
		return nil, Wrap(ErrTooManyLoginAttempts, nil).
			WithDetail("retry_after_seconds", retryAfterSeconds(decision.ResetAt))
	}

	principal, err := s.VerifyCredentials(ctx, in.TenantID, in.Email, in.Password)
	if err != nil {
		if IsUnauthorizedError(err) {
			s.metrics.ObserveLogin("invalid_credentials")
			s.recordFailure(in, "invalid_credentials")
		} else {
			s.metrics.ObserveLogin("error")
		}
		return nil, err
	}

	token, err := s.issuer.Issue(principal, 0)
	if err != nil {
		s.metrics.ObserveLogin("error")
		return nil, WrapInternal("failed to issue token", err)
	}

	s.metrics.ObserveLogin("success")
	if s.recorder != nil {
		if err := s.recorder.LogLoginSucceeded(principal, in.RequestID); err != nil {
			s.logger.Warn("failed to queue login audit", zap.Error(err))
		}
	}

	s.logger.Info("user logged in",
		zap.String("tenant_id", principal.TenantID.String()),
		zap.String("user_id", principal.UserID.String()),
		zap.String("request_id", in.RequestID))

	return &LoginResult{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Principal: principal,
	}, nil
}

func (s *AuthService) recordFailure(in LoginInput, reason string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.LogLoginFailed(in.TenantID, in.Email, reason, in.RequestID); err != nil {
		s.logger.Warn("failed to queue login audit", zap.Error(err))
	}
}

func retryAfterSeconds(resetAt time.Time) int {
	if resetAt.IsZero() {
		return 0
	}
	secs := int(math.Ceil(time.Until(resetAt).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
