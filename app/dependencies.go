package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/upb/insurance-platform/config"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/observability"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/middleware"
	"github.com/upb/insurance-platform/oidc"
	"github.com/upb/insurance-platform/repositories"
	"github.com/upb/insurance-platform/repositories/postgres"
	"github.com/upb/insurance-platform/services"
	"github.com/upb/insurance-platform/services/audit"
	"github.com/upb/insurance-platform/services/ratelimit"
	"go.uber.org/zap"
)

// auditStopTimeout bounds how long shutdown waits for queued audit events
const auditStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	DB       *postgres.DB
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Redis    *redis.Client

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories

	// Tenancy
	Gateway *tenancy.Gateway

	// Auth
	TokenIssuer   *auth.TokenIssuer
	TokenVerifier *auth.IssuerRouter

	// Services
	AuditService   *audit.AuditService
	AuthService    *services.AuthService
	Authorizer     *services.Authorizer
	UserService    *services.UserService
	RoleService    *services.RoleService
	CodeSetService *services.CodeSetService
	CatalogService *services.CatalogService
	JournalService *services.JournalService

	// Middleware
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
	TenantResolver       *middleware.TenantResolver

	closed bool
}

// NewDependencies opens the database described by cfg and wires every
// component on top of it.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := factory.GetDB().InitSchema(ctx); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	deps, err := build(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithDB wires every component on an already opened pool
func NewDependenciesWithDB(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.Logger) (*Dependencies, error) {
	factory := postgres.NewRepositoryFactoryWithDB(postgres.WrapDB(db, logger), logger)
	return build(ctx, cfg, factory, logger)
}

func build(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initObservability()
	deps.initRepositories()

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	throttle := deps.initThrottle(ctx, cfg)

	if err := deps.initServices(cfg, throttle); err != nil {
		deps.closeRedis()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.TokenVerifier, logger)
	deps.PermissionMiddleware = middleware.NewPermissionMiddleware(deps.Authorizer, logger)
	deps.TenantResolver = middleware.NewTenantResolver(cfg.Tenancy.DefaultTenantID)

	logger.Info("all dependencies initialized successfully",
		zap.Bool("federation", cfg.FederationEnabled()),
		zap.Bool("redis_throttle", deps.Redis != nil))
	return deps, nil
}

func (d *Dependencies) initObservability() {
	d.Registry, d.Metrics = observability.NewRegistry()
}

// initRepositories initializes all repository instances and the gateway
// every repository call goes through
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.Gateway = tenancy.NewGateway(d.DB, d.Logger, d.Metrics)
	d.Logger.Info("repositories initialized")
}

// initAuth builds the local issuer and the verifier chain. B2C tokens are
// accepted only when federation is configured.
func (d *Dependencies) initAuth(cfg *config.Config) error {
	tokenCfg := auth.TokenConfig{
		SigningKey:    []byte(cfg.Auth.SigningKey),
		Issuer:        cfg.Auth.Issuer,
		Audience:      cfg.Auth.Audience,
		DefaultExpiry: cfg.Auth.TokenExpiry,
		ClockSkew:     cfg.Auth.ClockSkew,
	}

	issuer, err := auth.NewTokenIssuer(tokenCfg, time.Now)
	if err != nil {
		return err
	}
	local, err := auth.NewLocalTokenVerifier(tokenCfg, time.Now)
	if err != nil {
		return err
	}

	router := auth.NewIssuerRouter()
	router.Register(local.Issuer(), local)

	if cfg.FederationEnabled() {
		federated := oidc.NewValidator(oidc.Config{
			Issuer:      cfg.OIDC.Issuer,
			ClientID:    cfg.OIDC.ClientID,
			JWKSURL:     cfg.OIDC.JWKSURL,
			TenantClaim: cfg.OIDC.TenantClaim,
			ClockSkew:   cfg.Auth.ClockSkew,
			CacheTTL:    cfg.OIDC.JWKSCacheTTL,
			HTTPTimeout: 10 * time.Second,
		})
		router.Register(federated.Issuer(), federated)
		d.Logger.Info("federated authentication enabled", zap.String("issuer", federated.Issuer()))
	} else {
		d.Logger.Warn("B2C not configured, only local tokens are accepted")
	}

	d.TokenIssuer = issuer
	d.TokenVerifier = router
	return nil
}

// initThrottle prefers Redis so limits hold across replicas. An unreachable
// Redis falls back to the in-process limiter.
func (d *Dependencies) initThrottle(ctx context.Context, cfg *config.Config) *ratelimit.LoginThrottle {
	if cfg.RateLimit.LoginAttempts == 0 {
		d.Logger.Warn("login throttling disabled")
		return nil
	}

	limiter := ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})

	if cfg.Redis.Addr != "" {
		redisLimiter, client, err := ratelimit.NewRedisLimiter(ratelimit.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "insurance:login:",
		}, time.Now)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = client.Ping(pingCtx).Err()
			cancel()
			if err != nil {
				_ = client.Close()
			}
		}
		if err != nil {
			d.Logger.Warn("redis unavailable, using in-memory login throttle",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err))
		} else {
			limiter = redisLimiter
			d.Redis = client
			d.Logger.Info("redis login throttle enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	return ratelimit.NewLoginThrottle(limiter, cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow, d.Logger)
}

func (d *Dependencies) initServices(cfg *config.Config, throttle *ratelimit.LoginThrottle) error {
	d.AuditService = audit.NewAuditService(d.Gateway, d.Repos.AuditLogs, d.Logger, audit.DefaultConfig())
	if err := d.AuditService.Start(); err != nil {
		return err
	}

	d.AuthService = services.NewAuthService(services.AuthServiceConfig{
		Gateway:  d.Gateway,
		Repos:    d.Repos,
		Hasher:   auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Issuer:   d.TokenIssuer,
		Throttle: throttle,
		Recorder: d.AuditService,
		Metrics:  d.Metrics,
		Logger:   d.Logger,
	})
	d.Authorizer = services.NewAuthorizer(d.Gateway, d.Repos.Permissions, d.Metrics, d.Logger)
	d.UserService = services.NewUserService(d.Gateway, d.Repos.Users)
	d.RoleService = services.NewRoleService(d.Gateway, d.Repos, d.Logger)
	d.CodeSetService = services.NewCodeSetService(d.Gateway, d.Repos, d.Logger)
	d.CatalogService = services.NewCatalogService(d.Gateway, d.Repos.Reference)
	d.JournalService = services.NewJournalService(d.Gateway, d.Repos.AuditLogs, d.Repos.Outbox)
	return nil
}

func (d *Dependencies) closeRedis() error {
	if d.Redis == nil {
		return nil
	}
	err := d.Redis.Close()
	d.Redis = nil
	return err
}

// Close gracefully shuts down all dependencies. It is safe to call twice.
func (d *Dependencies) Close(ctx context.Context) error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain audit events before the pool goes away
	if d.AuditService != nil {
		timeout := auditStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.AuditService.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if err := d.closeRedis(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
