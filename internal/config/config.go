package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration sourced from the environment (with an
// optional .env file). Load fails fast on a missing API key or an invalid
// default unit system so misconfiguration surfaces at startup, not on the
// first request.
type Config struct {
	Port string

	APIKey  string
	BaseURL string
	GeoURL  string

	DefaultUnits string
	GeoLimit     int

	CacheTTL      time.Duration
	CacheCapacity int

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	AllowedOrigin string

	RateLimitRPS   int
	RateLimitBurst int

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	CircuitBreakerEnabled bool

	WarmLocations []string
	WarmInterval  time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  envString("PORT", "5000"),
		APIKey:                os.Getenv("OPENWEATHER_API_KEY"),
		BaseURL:               envString("OPENWEATHER_BASE_URL", ""),
		GeoURL:                envString("OPENWEATHER_GEO_URL", ""),
		DefaultUnits:          strings.ToLower(envString("DEFAULT_UNITS", "metric")),
		GeoLimit:              envInt("GEO_LIMIT", 1),
		CacheTTL:              time.Duration(envInt("CACHE_TTL", 300)) * time.Second,
		CacheCapacity:         envInt("CACHE_CAPACITY", 512),
		RetryAttempts:         envInt("RETRY_ATTEMPTS", 4),
		RetryBaseDelay:        envDuration("RETRY_BASE_DELAY", 400*time.Millisecond),
		RetryMaxDelay:         envDuration("RETRY_MAX_DELAY", 2*time.Second),
		AllowedOrigin:         envString("ALLOWED_ORIGIN", "http://localhost:5000"),
		RateLimitRPS:          envInt("RATE_LIMIT_RPS", 0),
		RateLimitBurst:        envInt("RATE_LIMIT_BURST", 0),
		RequestTimeout:        envDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:       envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		CircuitBreakerEnabled: envBool("CIRCUIT_BREAKER_ENABLED", false),
		WarmLocations:         envList("WARM_LOCATIONS"),
		WarmInterval:          envDuration("WARM_INTERVAL", 0),
	}

	cfg.ConnectTimeout, cfg.ReadTimeout = parseTimeoutPair(os.Getenv("HTTP_TIMEOUT"))

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("OPENWEATHER_API_KEY is missing. Set it in .env or environment")
	}
	switch cfg.DefaultUnits {
	case "metric", "imperial", "standard":
	default:
		return fmt.Errorf("DEFAULT_UNITS must be metric, imperial, or standard, got %q", cfg.DefaultUnits)
	}
	if cfg.GeoLimit <= 0 {
		cfg.GeoLimit = 1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 300 * time.Second
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = 512
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = cfg.RateLimitRPS * 2
	}
	if cfg.RequestTimeout <= cfg.ReadTimeout {
		cfg.RequestTimeout = cfg.ReadTimeout + time.Second
	}
	return nil
}

// parseTimeoutPair parses HTTP_TIMEOUT as a "connect,read" pair of seconds
// (fractions allowed, e.g. "3.5,7"). A single value applies to both; parse
// failure falls back to the defaults.
func parseTimeoutPair(raw string) (connect, read time.Duration) {
	connect, read = 3500*time.Millisecond, 7*time.Second
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return connect, read
	}

	parts := strings.Split(raw, ",")
	values := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f <= 0 {
			return connect, read
		}
		values = append(values, time.Duration(f*float64(time.Second)))
	}

	switch len(values) {
	case 1:
		return values[0], values[0]
	case 2:
		return values[0], values[1]
	default:
		return connect, read
	}
}

func envString(key, defaultVal string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return v
}

func envInt(key string, defaultVal int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func envBool(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envList(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
