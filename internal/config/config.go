package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the whole application configuration.
// Populated from environment variables (.env in development).
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Session      SessionConfig
	PriceOracle  PriceOracleConfig
	OrderAPI     OrderAPIConfig
	Address      AddressConfig
	Sync         SyncConfig
	Payment      PaymentConfig
	Stripe       StripeConfig
	Job          JobConfig
	AllowOrigins []string
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	BaseURL     string // public storefront URL, used for provider return URLs
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret       string
	CookieName   string
	CookieDomain string
	CookieSecure bool
	TTL          time.Duration
}

type PriceOracleConfig struct {
	URL     string
	Timeout time.Duration
}

// =====================================================
// ORDER API (generic create, PayPal create/capture)
// =====================================================
type OrderAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AddressConfig struct {
	LookupURL string
	Debounce  time.Duration
	MinLength int
	Timeout   time.Duration
}

type SyncConfig struct {
	StalePolicy      string // latest_generation | last_arrival
	WorkspaceIdleTTL time.Duration
}

type PaymentConfig struct {
	SinglePhaseProvider string // provider name used for stripe_create_order
	TwoPhaseProvider    string // provider name used for paypal_* commands
	ReturnPath          string // storefront page the card provider redirects to
}

type StripeConfig struct {
	SecretKey string
}

type JobConfig struct {
	AttemptExpiry    time.Duration
	ExpireAttemptsAt string // cron spec
}

// Load reads config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Storefront API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			BaseURL:     getEnv("APP_BASE_URL", "http://localhost:3000"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", "change-me-session-secret"),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "sf_session"),
			CookieDomain: getEnv("SESSION_COOKIE_DOMAIN", ""),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", true),
			TTL:          getEnvDuration("SESSION_TTL", 30*24*time.Hour),
		},
		PriceOracle: PriceOracleConfig{
			URL:     getEnv("PRICE_ORACLE_URL", "http://localhost:9000/api/price"),
			Timeout: getEnvDuration("PRICE_ORACLE_TIMEOUT", 8*time.Second),
		},
		OrderAPI: OrderAPIConfig{
			BaseURL: getEnv("ORDER_API_URL", "http://localhost:9000/api"),
			Timeout: getEnvDuration("ORDER_API_TIMEOUT", 15*time.Second),
		},
		Address: AddressConfig{
			LookupURL: getEnv("ADDRESS_LOOKUP_URL", "http://localhost:9000/api/address"),
			Debounce:  getEnvDuration("ADDRESS_DEBOUNCE", 800*time.Millisecond),
			MinLength: getEnvInt("ADDRESS_MIN_LENGTH", 3),
			Timeout:   getEnvDuration("ADDRESS_TIMEOUT", 5*time.Second),
		},
		Sync: SyncConfig{
			StalePolicy:      getEnv("SYNC_STALE_POLICY", "latest_generation"),
			WorkspaceIdleTTL: getEnvDuration("WORKSPACE_IDLE_TTL", 30*time.Minute),
		},
		Payment: PaymentConfig{
			SinglePhaseProvider: getEnv("PAYMENT_SINGLE_PHASE_PROVIDER", "stripe"),
			TwoPhaseProvider:    getEnv("PAYMENT_TWO_PHASE_PROVIDER", "paypal"),
			ReturnPath:          getEnv("PAYMENT_RETURN_PATH", "/checkout/complete"),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		},
		Job: JobConfig{
			AttemptExpiry:    getEnvDuration("CHECKOUT_ATTEMPT_EXPIRY", 24*time.Hour),
			ExpireAttemptsAt: getEnv("CHECKOUT_EXPIRE_ATTEMPTS_CRON", "*/30 * * * *"),
		},
		AllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ReturnURL is where the card provider sends the shopper after an extra
// authentication step
func (c *Config) ReturnURL() string {
	return strings.TrimRight(c.App.BaseURL, "/") + c.Payment.ReturnPath
}

// Validate checks critical config values
func (c *Config) Validate() error {
	switch c.Sync.StalePolicy {
	case "latest_generation", "last_arrival":
	default:
		return fmt.Errorf("SYNC_STALE_POLICY must be latest_generation or last_arrival, got %q", c.Sync.StalePolicy)
	}

	if c.Address.MinLength < 1 {
		return fmt.Errorf("ADDRESS_MIN_LENGTH must be positive")
	}

	if c.App.Environment == "production" {
		if c.Session.Secret == "change-me-session-secret" {
			return fmt.Errorf("SESSION_SECRET must be set in production")
		}
		if c.Stripe.SecretKey == "" {
			fmt.Println("WARNING: STRIPE_SECRET_KEY not set - card payments will not work")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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

func getEnvBool(key string, defaultValue bool) bool {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
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

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
