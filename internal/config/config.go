// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database path, rate limiting, request
// limits, privacy/enrichment behavior, notifications, and observability.
//
// The configuration is resolved exactly once at boot and threaded explicitly
// into every component that needs it; there are no module-level feature flags.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings. An empty
// allow-list means no cross-origin grants are issued at all.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// RedisConfig defines the connection settings for the rate-limit counter store.
// An empty Addr disables Redis; the rate limiter then falls back to an
// in-process token bucket.
type RedisConfig struct {
	Addr     string // REDIS_ADDR, e.g. "localhost:6379"
	Password string // REDIS_PASSWORD
	DB       int    // REDIS_DB
}

// RateLimitConfig bounds request volume per (IP, user-agent) pair over a
// fixed window.
type RateLimitConfig struct {
	MaxRequests int           // ceiling per window (>= 1)
	Window      time.Duration // fixed window length (> 0)
}

// PrivacyConfig controls how client IPs are retained on stored quotes.
//
// AnonymizeIP (default on) keeps only a salted one-way hash of the client IP.
// StoreRawIP (default off) allows the raw address to be persisted alongside
// the hash; it has no effect while AnonymizeIP is enabled.
type PrivacyConfig struct {
	AnonymizeIP   bool
	StoreRawIP    bool
	IPHashSalt    string
	CountryHeader string // trusted edge header carrying the country code
}

// EmailConfig holds the SendGrid settings for customer confirmations.
// An empty APIKey disables email dispatch entirely.
type EmailConfig struct {
	APIKey   string
	From     string
	FromName string
}

// CRMConfig holds the webhook settings for admin notifications.
// An empty WebhookURL disables the dispatch.
type CRMConfig struct {
	WebhookURL string
	Token      string
}

// RetentionConfig drives the background sweep over stored quotes:
// quotes older than MaxAge are soft-deleted, and soft-deleted rows older
// than PurgeGrace are removed permanently.
type RetentionConfig struct {
	MaxAge        time.Duration
	PurgeGrace    time.Duration
	SweepInterval time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-quote-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath          string // SQLite path
	Currency        string // ISO-4217 code applied to computed quotes
	MaxPayloadBytes int64  // declared Content-Length ceiling for API posts
	AdminToken      string // X-Admin-Token value for the admin endpoints

	// Notifications
	Email         EmailConfig
	CRM           CRMConfig
	NotifyTimeout time.Duration // per-dispatch bound

	// Shared counter store + rate limiting
	Redis     RedisConfig
	RateLimit RateLimitConfig

	// Enrichment / privacy
	Privacy PrivacyConfig

	// Retention sweep
	Retention RetentionConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath:          getenv("DB_PATH", "quotes.db"),
		Currency:        strings.ToUpper(getenv("CURRENCY", "EUR")),
		MaxPayloadBytes: getint64("MAX_PAYLOAD_BYTES", 64<<10),
		AdminToken:      getenv("ADMIN_TOKEN", ""),

		// Notifications
		Email: EmailConfig{
			APIKey:   getenv("SENDGRID_API_KEY", ""),
			From:     getenv("EMAIL_FROM", "quotes@example.com"),
			FromName: getenv("EMAIL_FROM_NAME", "Quote Service"),
		},
		CRM: CRMConfig{
			WebhookURL: getenv("CRM_WEBHOOK_URL", ""),
			Token:      getenv("CRM_WEBHOOK_TOKEN", ""),
		},
		NotifyTimeout: getdur("NOTIFY_TIMEOUT", 5*time.Second),

		// Counter store + rate limiting
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: getint("RATE_MAX_REQUESTS", 10),
			Window:      getdur("RATE_WINDOW", time.Minute),
		},

		// Enrichment / privacy
		Privacy: PrivacyConfig{
			AnonymizeIP:   getbool("ANONYMIZE_IP", true),
			StoreRawIP:    getbool("STORE_RAW_IP", false),
			IPHashSalt:    getenv("IP_HASH_SALT", ""),
			CountryHeader: getenv("COUNTRY_HEADER", "CF-IPCountry"),
		},

		// Retention
		Retention: RetentionConfig{
			MaxAge:        getdur("RETENTION_MAX_AGE", 365*24*time.Hour),
			PurgeGrace:    getdur("RETENTION_PURGE_GRACE", 90*24*time.Hour),
			SweepInterval: getdur("RETENTION_SWEEP_INTERVAL", 12*time.Hour),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-quote-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if len(cfg.Currency) != 3 {
		return cfg, errors.New("CURRENCY must be a 3-letter ISO code")
	}
	if cfg.MaxPayloadBytes <= 0 {
		return cfg, errors.New("MAX_PAYLOAD_BYTES must be > 0")
	}
	if cfg.RateLimit.MaxRequests < 1 {
		return cfg, errors.New("RATE_MAX_REQUESTS must be >= 1")
	}
	if cfg.RateLimit.Window <= 0 {
		return cfg, errors.New("RATE_WINDOW must be > 0")
	}
	if cfg.NotifyTimeout <= 0 {
		return cfg, errors.New("NOTIFY_TIMEOUT must be > 0")
	}
	if cfg.Retention.MaxAge <= 0 || cfg.Retention.PurgeGrace <= 0 || cfg.Retention.SweepInterval <= 0 {
		return cfg, errors.New("retention durations must be > 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
