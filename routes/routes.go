package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/insurance-platform/app"
	"github.com/upb/insurance-platform/handlers"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/observability"
	"github.com/upb/insurance-platform/middleware"
	"github.com/upb/insurance-platform/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Instrument(deps.Metrics))
	r.Use(chimw.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.TenantHeader},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.DB, deps.Logger)
	authHandler := handlers.NewAuthHandler(deps.AuthService, handlers.CookieConfig{
		Secure: cfg.Auth.CookieSecure,
		Domain: cfg.Auth.CookieDomain,
	}, deps.Logger)
	account := handlers.NewAccountHandler(deps.UserService, deps.Logger)
	roles := handlers.NewRoleHandler(deps.RoleService, deps.Logger)
	codeSets := handlers.NewCodeSetHandler(deps.CodeSetService, deps.Logger)
	catalog := handlers.NewCatalogHandler(deps.CatalogService, deps.Logger)
	journal := handlers.NewJournalHandler(deps.JournalService, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/ready", health.HandleReadiness)

	if cfg.Observability.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", observability.Handler(deps.Registry))
	}

	// Local account endpoints. The tenant comes from X-Tenant-Id or the default.
	r.Route("/auth", func(r chi.Router) {
		r.Use(deps.TenantResolver.ResolveTenant)
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	r.With(deps.AuthMiddleware.RequireAuth).Get("/dashboard", account.HandleDashboard)

	// Tenant data. Every handler below runs its queries through the gateway
	// bound to the principal's tenant.
	r.Route("/api", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Use(deps.AuthMiddleware.RequireTenant)

		r.Get("/security/users", account.HandleListUsers)

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", roles.HandleListRoles)
			r.With(deps.PermissionMiddleware.Require(auth.PermissionRolesCreate)).
				Post("/", roles.HandleCreateRole)
		})

		r.Route("/codesets", func(r chi.Router) {
			r.Get("/", codeSets.HandleListCodeSets)
			r.With(deps.PermissionMiddleware.Require(auth.PermissionCodeSetsCreate)).
				Post("/", codeSets.HandleCreateCodeSet)
		})

		r.Get("/countries", catalog.HandleListCountries)
		r.Get("/currencies", catalog.HandleListCurrencies)
		r.Get("/languages", catalog.HandleListLanguages)

		r.Get("/audit-logs", journal.HandleListAuditLogs)
		r.Get("/outbox-events", journal.HandleListOutboxEvents)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
