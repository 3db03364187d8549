package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/printdesk/backend-print/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string

	PricingBWRate    pricing.Money
	PricingColorRate pricing.Money
	CurrencyCode     string

	SessionTTL      time.Duration
	JanitorInterval time.Duration

	UploadMaxFiles    int
	UploadMaxFileSize int64
	UploadConcurrency int

	UploadRateWindow time.Duration
	UploadRateMax    int

	PaymentUPIVPA   string
	PaymentUPIPayee string

	EventLogCapacity int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		PricingBWRate:      pricing.Money(parseInt(k.String("PRICING_BW_RATE"), 3)),
		PricingColorRate:   pricing.Money(parseInt(k.String("PRICING_COLOR_RATE"), 10)),
		CurrencyCode:       valueOrDefault(k.String("CURRENCY_CODE"), "INR"),
		SessionTTL:         parseDuration(k.String("SESSION_TTL"), "30m"),
		JanitorInterval:    parseDuration(k.String("SESSION_JANITOR_INTERVAL"), "1m"),
		UploadMaxFiles:     parseInt(k.String("UPLOAD_MAX_FILES"), 20),
		UploadMaxFileSize:  int64(parseInt(k.String("UPLOAD_MAX_FILE_SIZE"), 25<<20)),
		UploadConcurrency:  parseInt(k.String("UPLOAD_CONCURRENCY"), 4),
		UploadRateWindow:   parseDuration(k.String("UPLOAD_RATE_WINDOW"), "1m"),
		UploadRateMax:      parseInt(k.String("UPLOAD_RATE_MAX"), 30),
		PaymentUPIVPA:      valueOrDefault(k.String("PAYMENT_UPI_VPA"), "printdesk@upi"),
		PaymentUPIPayee:    valueOrDefault(k.String("PAYMENT_UPI_PAYEE"), "PrintDesk"),
		EventLogCapacity:   parseInt(k.String("EVENT_LOG_CAPACITY"), 1024),
	}

	if cfg.PricingBWRate <= 0 || cfg.PricingColorRate <= 0 {
		return nil, fmt.Errorf("pricing rates must be positive, got bw=%d color=%d", cfg.PricingBWRate, cfg.PricingColorRate)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Policy returns the pricing policy derived from the configured rates.
func (c *Config) Policy() pricing.Policy {
	return pricing.Policy{BWPerPage: c.PricingBWRate, ColorPerPage: c.PricingColorRate}
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	n, err := strconv.Atoi(base)
	if err != nil {
		return fallback
	}
	return n
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
