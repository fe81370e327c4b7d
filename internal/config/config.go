package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr           = ":8080"
	defaultDatabaseURL        = "file:venuebook.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	defaultJWTSecret          = "change-me-jwt-secret"
	defaultJWTAccessTTL       = "24h"
	defaultRateLimit          = "60-M"
	defaultLogLevel           = "info"
	defaultExpiryLookahead    = "72h"
	defaultPaymentGrace       = "24h"
	defaultExpiryScanInterval = "15m"
	defaultExpiryScanEnabled  = "true"
	defaultAutoComplete       = "true"
	defaultOutboxInterval     = "2s"
	defaultOutboxBatchSize    = "100"
	defaultOutboxMaxAttempts  = "5"
	defaultSMTPPort           = "587"
	defaultKafkaTopic         = "booking-lifecycle"
)

type Config struct {
	AppEnv             string
	HTTPAddr           string
	DatabaseURL        string
	JWTSecret          string
	JWTAccessTTL       time.Duration
	RedisURL           string
	RateLimit          string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFile            string
	PublicBaseURL      string

	Booking BookingConfig
	Outbox  OutboxConfig
	SMTP    SMTPConfig
	Kafka   KafkaConfig
}

type BookingConfig struct {
	// ExpiryLookahead is how far ahead of the payment due date the reminder goes out.
	ExpiryLookahead     time.Duration
	PaymentGracePeriod  time.Duration
	ScanInterval        time.Duration
	ScanEnabled         bool
	AutoCompleteEnabled bool
}

type OutboxConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.RateLimit = strings.TrimSpace(getEnv("RATE_LIMIT", defaultRateLimit))
	cfg.CORSAllowedOrigins = parseListEnv("CORS_ALLOWED_ORIGINS")
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))
	cfg.LogFile = strings.TrimSpace(os.Getenv("LOG_FILE"))
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	var err error
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.Booking.ExpiryLookahead, err = parseDurationEnv("EXPIRY_LOOKAHEAD", defaultExpiryLookahead); err != nil {
		return nil, err
	}
	if cfg.Booking.PaymentGracePeriod, err = parseDurationEnv("PAYMENT_GRACE_PERIOD", defaultPaymentGrace); err != nil {
		return nil, err
	}
	if cfg.Booking.ScanInterval, err = parseDurationEnv("EXPIRY_SCAN_INTERVAL", defaultExpiryScanInterval); err != nil {
		return nil, err
	}
	cfg.Booking.ScanEnabled = parseBoolEnv("EXPIRY_SCAN_ENABLED", defaultExpiryScanEnabled)
	cfg.Booking.AutoCompleteEnabled = parseBoolEnv("AUTO_COMPLETE_ENABLED", defaultAutoComplete)

	if cfg.Outbox.Interval, err = parseDurationEnv("OUTBOX_INTERVAL", defaultOutboxInterval); err != nil {
		return nil, err
	}
	if cfg.Outbox.BatchSize, err = parseIntEnv("OUTBOX_BATCH_SIZE", defaultOutboxBatchSize); err != nil {
		return nil, err
	}
	if cfg.Outbox.MaxAttempts, err = parseIntEnv("OUTBOX_MAX_ATTEMPTS", defaultOutboxMaxAttempts); err != nil {
		return nil, err
	}

	cfg.SMTP.Host = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	if cfg.SMTP.Port, err = parseIntEnv("SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = strings.TrimSpace(os.Getenv("SMTP_FROM"))

	cfg.Kafka.Brokers = parseListEnv("KAFKA_BROKERS")
	cfg.Kafka.Topic = strings.TrimSpace(getEnv("KAFKA_TOPIC", defaultKafkaTopic))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.Booking.ExpiryLookahead < 0 {
		return fmt.Errorf("EXPIRY_LOOKAHEAD must be >= 0")
	}
	if cfg.Booking.PaymentGracePeriod < 0 {
		return fmt.Errorf("PAYMENT_GRACE_PERIOD must be >= 0")
	}
	if cfg.Booking.ScanInterval <= 0 {
		return fmt.Errorf("EXPIRY_SCAN_INTERVAL must be > 0")
	}
	if cfg.Outbox.Interval <= 0 {
		return fmt.Errorf("OUTBOX_INTERVAL must be > 0")
	}
	if cfg.Outbox.BatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be > 0")
	}
	if cfg.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("OUTBOX_MAX_ATTEMPTS must be > 0")
	}
	if cfg.Kafka.Enabled() && cfg.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC must not be empty when KAFKA_BROKERS is set")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.DatabaseURL, defaultDatabaseURL) {
			return fmt.Errorf("in prod/release DATABASE_URL must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func parseListEnv(name string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
