package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	BackendBaseURL string
	BackendTimeout time.Duration

	// DatabaseURL is optional. Without it admin audit entries go to the log.
	DatabaseURL       string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnLifetime string

	CookieDomain      string
	CookieSecure      bool
	SessionTTL        time.Duration
	SessionIssuer     string
	SessionSigningKey string

	WizardCatalogPath  string
	MaxAttachmentBytes int64
	WizardIdleTTL      time.Duration

	WSEnabled bool
}

func Load() Config {
	return Config{
		Port:     getEnv("PORT", "8090"),
		Env:      getEnv("APP_ENV", "local"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8732/api"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxConns:        getEnvInt32("DB_MAX_CONNS", 10),
		DBMinConns:        getEnvInt32("DB_MIN_CONNS", 1),
		DBMaxConnLifetime: getEnv("DB_MAX_CONN_LIFETIME", "30m"),

		CookieDomain:      getEnv("COOKIE_DOMAIN", ""),
		CookieSecure:      getEnvBool("COOKIE_SECURE", false),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionIssuer:     getEnv("SESSION_ISSUER", "loan-portal"),
		SessionSigningKey: getEnv("SESSION_SIGNING_KEY", "dev-insecure-key-change-me"),

		WizardCatalogPath:  getEnv("WIZARD_CATALOG_PATH", ""),
		MaxAttachmentBytes: getEnvInt64("MAX_ATTACHMENT_BYTES", 5<<20),
		WizardIdleTTL:      getEnvDuration("WIZARD_IDLE_TTL", 30*time.Minute),

		WSEnabled: getEnvBool("WS_ENABLED", true),
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		var out int32
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		var out int64
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil && out > 0 {
			return out
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		n := strings.ToLower(strings.TrimSpace(v))
		return n == "1" || n == "true" || n == "yes"
	}
	return fallback
}
