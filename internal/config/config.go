package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds everything the binaries read from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CORSAllowedOrigins []string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     http.SameSite

	// Multi-tenancy.
	TenantHeader      string
	TenantRootDomain  string
	DefaultRestaurant string

	// Pricing policy, all amounts in minor units of Currency.
	Currency           string
	DeliveryFee        int64
	ProcessingFeeBps   int64
	ProcessingFeeFixed int64
	PlatformFee        int64

	// Lifetimes.
	CartTTL      time.Duration
	MenuCacheTTL time.Duration

	// Notification worker.
	NotifyQueue       string
	NotifyConcurrency int
	EmailEnabled      bool
	EmailFrom         string
}

// Load reads configuration from the process environment, after merging
// in an optional .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	get := func(key string) string { return strings.TrimSpace(k.String(key)) }

	cfg := &Config{
		AppEnv:             stringOr(get("APP_ENV"), "development"),
		Port:               stringOr(get("PORT"), "8080"),
		DatabaseURL:        get("DATABASE_URL"),
		RedisURL:           get("REDIS_URL"),
		JWTSecret:          get("JWT_SECRET"),
		JWTIssuer:          stringOr(get("JWT_ISSUER"), "backend-resto"),
		JWTAudience:        stringOr(get("JWT_AUDIENCE"), "resto-frontend"),
		CORSAllowedOrigins: csvList(get("CORS_ALLOWED_ORIGINS")),
		AccessTokenTTL:     durationOr(get("ACCESS_TOKEN_TTL"), 15*time.Minute),
		RefreshTokenTTL:    durationOr(get("REFRESH_TOKEN_TTL"), 7*24*time.Hour),
		CookieDomain:       get("COOKIE_DOMAIN"),
		CookieSecure:       boolFlag(get("COOKIE_SECURE")),
		CookieSameSite:     sameSiteOr(get("COOKIE_SAMESITE"), http.SameSiteLaxMode),

		TenantHeader:      stringOr(get("TENANT_HEADER"), "X-Restaurant-Slug"),
		TenantRootDomain:  get("TENANT_ROOT_DOMAIN"),
		DefaultRestaurant: get("DEFAULT_RESTAURANT_SLUG"),

		Currency:           stringOr(get("CURRENCY"), "IDR"),
		DeliveryFee:        int64Or(get("DELIVERY_FEE"), 299),
		ProcessingFeeBps:   int64Or(get("PROCESSING_FEE_BPS"), 290),
		ProcessingFeeFixed: int64Or(get("PROCESSING_FEE_FIXED"), 30),
		PlatformFee:        int64Or(get("PLATFORM_FEE"), 199),

		CartTTL:      durationOr(get("CART_TTL"), 24*time.Hour),
		MenuCacheTTL: durationOr(get("MENU_CACHE_TTL"), 5*time.Minute),

		NotifyQueue:       stringOr(get("NOTIFY_QUEUE"), "notifications"),
		NotifyConcurrency: int(int64Or(get("NOTIFY_CONCURRENCY"), 10)),
		EmailEnabled:      boolFlag(get("EMAIL_ENABLED")),
		EmailFrom:         stringOr(get("EMAIL_FROM"), "no-reply@resto.local"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("DATABASE_URL is required")
	case c.RedisURL == "":
		return errors.New("REDIS_URL is required")
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	}
	for _, fee := range []int64{c.DeliveryFee, c.ProcessingFeeBps, c.ProcessingFeeFixed, c.PlatformFee} {
		if fee < 0 {
			return errors.New("fee amounts must not be negative")
		}
	}
	return nil
}

// HTTPAddr formats Port as a listen address.
func (c *Config) HTTPAddr() string {
	port := stringOr(strings.TrimSpace(c.Port), "8080")
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func stringOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func csvList(value string) []string {
	var out []string
	for _, field := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func durationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func int64Or(value string, fallback int64) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func boolFlag(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func sameSiteOr(value string, fallback http.SameSite) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	}
	return fallback
}
