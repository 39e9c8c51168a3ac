package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// WellKnownTenantID is used for pre-authentication requests that carry no
// X-Tenant-Id header.
const WellKnownTenantID = "00000000-0000-0000-0000-000000000001"

// minProductionKeyBytes is the minimum HS256 key length accepted in production.
const minProductionKeyBytes = 32

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	OIDC          OIDCConfig
	Tenancy       TenancyConfig
	Redis         RedisConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	InitSchema       bool // Apply the bundled schema on startup (development only)
}

// AuthConfig holds local account and token settings
type AuthConfig struct {
	SigningKey   string
	Issuer       string
	Audience     string
	TokenExpiry  time.Duration
	ClockSkew    time.Duration // Zero: tokens are rejected the second they expire
	BcryptCost   int
	CookieSecure bool
	CookieDomain string
}

// OIDCConfig holds the external identity provider (Azure AD B2C) settings.
// Federated tokens are accepted only when Issuer and ClientID are set.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	JWKSURL      string
	TenantClaim  string
	JWKSCacheTTL time.Duration
}

// TenancyConfig holds tenant resolution settings
type TenancyConfig struct {
	DefaultTenantID uuid.UUID
}

// RedisConfig holds the optional Redis connection used for login throttling
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig holds login throttling settings
type RateLimitConfig struct {
	LoginAttempts int
	LoginWindow   time.Duration
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	defaultTenant, err := uuid.Parse(getEnv("DEFAULT_TENANT_ID", WellKnownTenantID))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TENANT_ID: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*"}),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			SigningKey:   getEnv("JWT_SIGNING_KEY", ""),
			Issuer:       getEnv("JWT_ISSUER", "insurance-platform"),
			Audience:     getEnv("JWT_AUDIENCE", "insurance-platform-api"),
			TokenExpiry:  getEnvAsDuration("JWT_EXPIRY", time.Hour),
			ClockSkew:    getEnvAsDuration("AUTH_CLOCK_SKEW", 0),
			BcryptCost:   getEnvAsInt("BCRYPT_COST", 12),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", true),
			CookieDomain: getEnv("SESSION_COOKIE_DOMAIN", ""),
		},
		OIDC: OIDCConfig{
			Issuer:       getEnv("B2C_ISSUER", ""),
			ClientID:     getEnv("B2C_CLIENT_ID", ""),
			JWKSURL:      getEnv("B2C_JWKS_URL", ""),
			TenantClaim:  getEnv("B2C_TENANT_CLAIM", "extension_TenantId"),
			JWKSCacheTTL: getEnvAsDuration("B2C_JWKS_CACHE_TTL", time.Hour),
		},
		Tenancy: TenancyConfig{
			DefaultTenantID: defaultTenant,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 10),
			LoginWindow:   getEnvAsDuration("LOGIN_WINDOW", 15*time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Development gets a throwaway key so the service starts without setup
	if cfg.Auth.SigningKey == "" && !cfg.IsProduction() {
		cfg.Auth.SigningKey = "dev-only-signing-key-change-me-0000"
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// Token validation
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("JWT signing key is required")
	}
	if c.IsProduction() && len(c.Auth.SigningKey) < minProductionKeyBytes {
		return fmt.Errorf("JWT signing key must be at least %d bytes in production", minProductionKeyBytes)
	}
	if c.Auth.Issuer == "" || c.Auth.Audience == "" {
		return fmt.Errorf("JWT issuer and audience are required")
	}
	if c.Auth.TokenExpiry <= 0 {
		return fmt.Errorf("JWT expiry must be positive")
	}
	if c.Auth.ClockSkew < 0 {
		return fmt.Errorf("clock skew cannot be negative")
	}

	// Federated auth is all-or-nothing
	if (c.OIDC.Issuer == "") != (c.OIDC.ClientID == "") {
		return fmt.Errorf("B2C_ISSUER and B2C_CLIENT_ID must be set together")
	}
	if c.OIDC.Issuer != "" && c.OIDC.Issuer == c.Auth.Issuer {
		return fmt.Errorf("federated issuer must differ from local issuer")
	}

	if c.Tenancy.DefaultTenantID == uuid.Nil {
		return fmt.Errorf("default tenant id cannot be the nil UUID")
	}

	if c.RateLimit.LoginAttempts < 0 {
		return fmt.Errorf("login attempt limit cannot be negative")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// FederationEnabled reports whether B2C tokens are accepted.
func (c *Config) FederationEnabled() bool {
	return c.OIDC.Issuer != "" && c.OIDC.ClientID != ""
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	initSchema := getEnvAsBool("DB_INIT_SCHEMA", false)
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			InitSchema:       initSchema,
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "insurance_app"),
		Password:        getEnv("DB_PASSWORD", "insurance_app"),
		Database:        getEnv("DB_NAME", "insurance"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		InitSchema:      initSchema,
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
