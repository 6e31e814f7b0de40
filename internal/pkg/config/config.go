package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/SubscriptionCheckout/internal/pkg/env"
)

const (
	DefaultLookupKeySuffix        = "-monthly-usd"
	DefaultMinProductsForDiscount = 2
	DefaultDiscountFactor         = 0.8
	DefaultPort                   = "4242"
	DefaultStaticDir              = "./client"
)

// Config is built once at startup and handed to every component that needs it.
// It is never mutated afterwards.
type Config struct {
	AppHost string
	AppPort string `validate:"required,numeric"`
	AppEnv  string `validate:"oneof=dev prod test"`

	StripeSecretKey      string `validate:"required"`
	StripePublishableKey string `validate:"required"`
	// StripeWebhookSecret may only be empty outside prod; webhooks are then accepted unsigned.
	StripeWebhookSecret string        `validate:"required_if=AppEnv prod"`
	WebhookTolerance    time.Duration `validate:"min=0"`

	CatalogNames           []string `validate:"required,min=1,dive,required"`
	LookupKeySuffix        string   `validate:"required"`
	MinProductsForDiscount int      `validate:"min=0"`
	DiscountFactor         float64  `validate:"gt=0,lte=1"`
	CouponID               string

	StaticDir string `validate:"required"`

	CacheHost       string
	CachePort       string `validate:"required_with=CacheHost"`
	CachePassword   string
	CatalogCacheTTL time.Duration `validate:"min=0"`

	RateLimitMax    int           `validate:"min=0"`
	RateLimitWindow time.Duration `validate:"min=0"`

	MetricsUser     string
	MetricsPassword string
}

// Load reads the configuration from the loaded .env map and the process
// environment. Call env.SetupEnvFile first.
func Load() (Config, error) {
	cfg := Config{
		AppHost:              env.GetEnv("APP_HOST", ""),
		AppPort:              env.GetEnv("APP_PORT", DefaultPort),
		AppEnv:               env.GetEnv("APP_ENV", "prod"),
		StripeSecretKey:      strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		StripePublishableKey: strings.TrimSpace(env.GetEnv("STRIPE_PUBLISHABLE_KEY", "")),
		StripeWebhookSecret:  strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		CatalogNames:         SplitCatalog(env.GetEnv("ANIMALS", "")),
		LookupKeySuffix:      env.GetEnv("LOOKUP_KEY_SUFFIX", DefaultLookupKeySuffix),
		CouponID:             strings.TrimSpace(env.GetEnv("COUPON_ID", "")),
		StaticDir:            env.GetEnv("STATIC_DIR", DefaultStaticDir),
		CacheHost:            env.GetEnv("CACHE_HOST", ""),
		CachePort:            env.GetEnv("CACHE_PORT", "6379"),
		CachePassword:        env.GetEnv("CACHE_PASSWORD", ""),
		MetricsUser:          env.GetEnv("METRICS_USER", "admin"),
		MetricsPassword:      env.GetEnv("METRICS_PASSWORD", ""),
	}

	var err error
	if cfg.MinProductsForDiscount, err = intFromEnv("MIN_PRODUCTS_FOR_DISCOUNT", DefaultMinProductsForDiscount); err != nil {
		return Config{}, err
	}
	if cfg.DiscountFactor, err = floatFromEnv("DISCOUNT_FACTOR", DefaultDiscountFactor); err != nil {
		return Config{}, err
	}
	if cfg.WebhookTolerance, err = durationFromEnv("WEBHOOK_TOLERANCE", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CatalogCacheTTL, err = durationFromEnv("CATALOG_CACHE_TTL", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitMax, err = intFromEnv("RATE_LIMIT_MAX", 20); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow, err = durationFromEnv("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDev reports whether debug logging and other development conveniences apply.
func (c Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// WebhookSigningEnabled reports whether incoming webhooks must carry a valid signature.
func (c Config) WebhookSigningEnabled() bool {
	return c.StripeWebhookSecret != ""
}

// CacheEnabled reports whether a Redis server is configured.
func (c Config) CacheEnabled() bool {
	return c.CacheHost != ""
}

// ListenAddr returns the address passed to fiber's Listen.
func (c Config) ListenAddr() string {
	return c.AppHost + ":" + c.AppPort
}

// SplitCatalog splits a comma-separated list of catalog names, dropping blanks.
func SplitCatalog(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func intFromEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func floatFromEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return v, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s or 5m: %w", key, err)
	}
	return v, nil
}
