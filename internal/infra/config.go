package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	AllowedOrigins []string
	GeoIPDBPath    string
	DefaultLocale  string

	WaveSpeedAPIKey string
	WaveSpeedAPIURL string
	PublicBaseURL   string
	SubmitTimeout   time.Duration

	PollInterval  time.Duration
	PollDelay     time.Duration
	PollBatch     int
	PendingMaxAge time.Duration

	TestCreditsEnabled bool
	TestCreditAmount   int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		AllowedOrigins: splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),

		WaveSpeedAPIKey: os.Getenv("WAVESPEED_API_KEY"),
		WaveSpeedAPIURL: getEnv("WAVESPEED_API_URL", "https://api.wavespeed.ai"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		SubmitTimeout:   time.Second * time.Duration(getEnvInt("WAVESPEED_TIMEOUT_SECONDS", 30)),

		PollInterval:  time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 120)),
		PollDelay:     time.Second * time.Duration(getEnvInt("POLL_DELAY_SECONDS", 60)),
		PollBatch:     getEnvInt("POLL_BATCH_SIZE", 20),
		PendingMaxAge: time.Minute * time.Duration(getEnvInt("PENDING_MAX_AGE_MINUTES", 30)),

		TestCreditsEnabled: getEnv("TEST_CREDITS_ENABLED", "false") == "true",
		TestCreditAmount:   getEnvInt("TEST_CREDIT_AMOUNT", 10),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// WebhookURL is the callback address handed to the generation provider.
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/webhooks/wavespeed"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
