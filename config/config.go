package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Fetcher    FetcherConfig
	Extractor  ExtractorConfig
	Validation ValidationConfig
	Batch      BatchConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Cache      CacheConfig
	Storage    StorageConfig
	Webhook    WebhookConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetcherConfig controls how listing pages are downloaded.
type FetcherConfig struct {
	// Timeout is the per-request deadline.
	Timeout time.Duration // default: 10s

	// MaxRedirects caps redirect chains.
	MaxRedirects int // default: 5

	// MinBodyBytes rejects responses too small to be a listing page.
	MinBodyBytes int // default: 1000

	// RelayURL routes requests through a CORS relay. The escaped target
	// URL replaces "{url}" or is appended when there is no placeholder.
	RelayURL string

	// Proxy is an optional http(s) forward proxy.
	Proxy string

	// UserAgent overrides the default Chrome user agent.
	UserAgent string
}

// ExtractorConfig controls field extraction.
type ExtractorConfig struct {
	// SelectorsFile is an optional YAML file of selector overrides.
	SelectorsFile string

	// DescriptionFormat is "text" or "markdown"; default: "text".
	DescriptionFormat string

	// MaxImages caps the image list; default: 20.
	MaxImages int

	// DriftThreshold is the simhash distance above which a page layout is
	// logged as drifted from the first page seen for its source.
	DriftThreshold int // default: 12
}

// ValidationConfig holds the default validation options.
type ValidationConfig struct {
	StrictMode       bool    // default: false
	AllowPartialData bool    // default: true
	AutoCorrect      bool    // default: true
	MinPrice         float64 // default: 10000
	MaxPrice         float64 // default: 100000000
	CurrencyPrefix   string  // default: "R"
}

// BatchConfig controls the batch orchestrator.
type BatchConfig struct {
	// Delay is the pause between consecutive requests (per host when
	// Workers > 1).
	Delay time.Duration // default: 1s

	// MaxURLs is the per-call ceiling enforced by the API.
	MaxURLs int // default: 10

	// Workers > 1 enables the bounded worker pool.
	Workers int // default: 1

	// AllowGeneric lets unsupported sites through with generic selectors.
	AllowGeneric bool // default: false
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 500

	// TTL is the hard expiry for cached results.
	TTL time.Duration // default: 1h
}

// StorageConfig controls the optional Postgres sink.
type StorageConfig struct {
	// DatabaseURL enables persistence of valid results when non-empty.
	DatabaseURL string

	// MaxConns caps the pgx pool size.
	MaxConns int // default: 4
}

// WebhookConfig controls batch completion notifications.
type WebhookConfig struct {
	// AllowPrivate permits webhook URLs on loopback and private networks.
	AllowPrivate bool // default: false
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: could not read .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("PROPSCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("PROPSCRAPE_PORT", 8080),
			Mode: envOr("PROPSCRAPE_MODE", "release"),
		},
		Fetcher: FetcherConfig{
			Timeout:      envDurationOr("PROPSCRAPE_FETCH_TIMEOUT", 10*time.Second),
			MaxRedirects: envIntOr("PROPSCRAPE_MAX_REDIRECTS", 5),
			MinBodyBytes: envIntOr("PROPSCRAPE_MIN_BODY_BYTES", 1000),
			RelayURL:     os.Getenv("PROPSCRAPE_RELAY_URL"),
			Proxy:        os.Getenv("PROPSCRAPE_PROXY"),
			UserAgent:    os.Getenv("PROPSCRAPE_USER_AGENT"),
		},
		Extractor: ExtractorConfig{
			SelectorsFile:     os.Getenv("PROPSCRAPE_SELECTORS_FILE"),
			DescriptionFormat: envOr("PROPSCRAPE_DESCRIPTION_FORMAT", "text"),
			MaxImages:         envIntOr("PROPSCRAPE_MAX_IMAGES", 20),
			DriftThreshold:    envIntOr("PROPSCRAPE_DRIFT_THRESHOLD", 12),
		},
		Validation: ValidationConfig{
			StrictMode:       envBoolOr("PROPSCRAPE_STRICT_MODE", false),
			AllowPartialData: envBoolOr("PROPSCRAPE_ALLOW_PARTIAL", true),
			AutoCorrect:      envBoolOr("PROPSCRAPE_AUTO_CORRECT", true),
			MinPrice:         envFloatOr("PROPSCRAPE_MIN_PRICE", 10_000),
			MaxPrice:         envFloatOr("PROPSCRAPE_MAX_PRICE", 100_000_000),
			CurrencyPrefix:   envOr("PROPSCRAPE_CURRENCY_PREFIX", "R"),
		},
		Batch: BatchConfig{
			Delay:        envDurationOr("PROPSCRAPE_BATCH_DELAY", time.Second),
			MaxURLs:      envIntOr("PROPSCRAPE_BATCH_MAX_URLS", 10),
			Workers:      envIntOr("PROPSCRAPE_BATCH_WORKERS", 1),
			AllowGeneric: envBoolOr("PROPSCRAPE_ALLOW_GENERIC", false),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PROPSCRAPE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("PROPSCRAPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PROPSCRAPE_RATE_RPS", 2.0),
			Burst:             envIntOr("PROPSCRAPE_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PROPSCRAPE_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("PROPSCRAPE_CACHE_TTL", time.Hour),
		},
		Storage: StorageConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			MaxConns:    envIntOr("PROPSCRAPE_DB_MAX_CONNS", 4),
		},
		Webhook: WebhookConfig{
			AllowPrivate: envBoolOr("PROPSCRAPE_WEBHOOK_ALLOW_PRIVATE", false),
		},
		Log: LogConfig{
			Level:  envOr("PROPSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("PROPSCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
