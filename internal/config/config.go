// Package config provides configuration loading and validation for the feed server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Avatar URL modes.
const (
	AvatarModeBase = "base"
	AvatarModeR2   = "r2"
)

// Config holds all configuration values for the feed server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Profile database
	DatabaseURL    string `koanf:"database_url"`
	DatabaseSchema string `koanf:"database_schema"`

	// Redis backs the feed cache and the shared rate limiter.
	RedisURL string `koanf:"redis_url"`

	// Feed cache
	CacheEnabled    bool   `koanf:"cache_enabled"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`
	CacheCodec      string `koanf:"cache_codec"`
	CacheKeyPrefix  string `koanf:"cache_key_prefix"`

	// Ranking oracle (OpenAI-compatible chat completions)
	RankingAPIURL         string `koanf:"ranking_api_url"`
	RankingAPIKey         string `koanf:"ranking_api_key"`
	RankingModel          string `koanf:"ranking_model"`
	RankingTimeoutSeconds int    `koanf:"ranking_timeout_seconds"`
	RankingPromptsFile    string `koanf:"ranking_prompts_file"`
	RankingBreakerEnabled bool   `koanf:"ranking_breaker_enabled"`

	// FeedFetchLimit caps the candidates pulled per request before ranking.
	FeedFetchLimit int `koanf:"feed_fetch_limit"`

	// JWT validation of viewer tokens
	JWTSecret         string `koanf:"jwt_secret"`
	JWTSecretPrevious string `koanf:"jwt_secret_previous"`

	// Avatars
	PublicBaseURL string `koanf:"public_base_url"`
	AvatarMode    string `koanf:"avatar_mode"`

	// R2 (Cloudflare Object Storage), used when AvatarMode is r2
	R2BucketName       string `koanf:"r2_bucket_name"`
	R2AccessKeyID      string `koanf:"r2_access_key_id"`
	R2SecretAccessKey  string `koanf:"r2_secret_access_key"`
	R2Endpoint         string `koanf:"r2_endpoint"`
	R2URLExpiryMinutes int    `koanf:"r2_url_expiry_minutes"`

	// Tracing
	TracingEnabled      bool    `koanf:"tracing_enabled"`
	TracingExporterType string  `koanf:"tracing_exporter_type"`
	TracingOTLPEndpoint string  `koanf:"tracing_otlp_endpoint"`
	TracingSampleRate   float64 `koanf:"tracing_sample_rate"`
	TracingInsecure     bool    `koanf:"tracing_insecure"`

	// Rate limiting of feed endpoints
	RateLimitEnabled       bool `koanf:"rate_limit_enabled"`
	RateLimitRequests      int  `koanf:"rate_limit_requests"`
	RateLimitWindowSeconds int  `koanf:"rate_limit_window_seconds"`

	// CORS
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL       = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret         = errors.New("JWT_SECRET is required")
	ErrMissingRedisURL          = errors.New("REDIS_URL is required when the cache or rate limiter is enabled")
	ErrMissingPublicBaseURL     = errors.New("PUBLIC_BASE_URL is required when AVATAR_MODE is base")
	ErrMissingR2BucketName      = errors.New("R2_BUCKET_NAME is required")
	ErrMissingR2AccessKeyID     = errors.New("R2_ACCESS_KEY_ID is required")
	ErrMissingR2SecretAccessKey = errors.New("R2_SECRET_ACCESS_KEY is required")
	ErrMissingR2Endpoint        = errors.New("R2_ENDPOINT is required")
	ErrInvalidPort              = errors.New("PORT must be a valid integer")
	ErrInvalidNumber            = errors.New("value must be a valid number")
	ErrInvalidAvatarMode        = errors.New("AVATAR_MODE must be base or r2")
	ErrInvalidCacheCodec        = errors.New("CACHE_CODEC must be json or cbor")
	ErrNonPositive              = errors.New("value must be greater than zero")
	ErrInvalidSampleRate        = errors.New("TRACING_SAMPLE_RATE must be between 0 and 1")
)

// Default values for non-secret configuration.
const (
	DefaultPort                   = 8080
	DefaultEnv                    = "development"
	DefaultDatabaseSchema         = "prod"
	DefaultCacheEnabled           = true
	DefaultCacheTTLSeconds        = 3600
	DefaultCacheCodec             = "json"
	DefaultCacheKeyPrefix         = "feed"
	DefaultRankingModel           = "qodo/gemini-2.0-flash"
	DefaultRankingTimeoutSeconds  = 30
	DefaultRankingBreakerEnabled  = true
	DefaultFeedFetchLimit         = 1000
	DefaultPublicBaseURL          = "http://localhost:8080/"
	DefaultAvatarMode             = AvatarModeBase
	DefaultR2URLExpiryMinutes     = 60
	DefaultTracingExporterType    = "otlp-http"
	DefaultTracingSampleRate      = 0.1
	DefaultRateLimitEnabled       = true
	DefaultRateLimitRequests      = 60
	DefaultRateLimitWindowSeconds = 60
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	var loadErrs []error
	intVal := func(envKey, koanfKey string, def int) int {
		v, err := getEnvIntOrDefault(envKey, k.Int(koanfKey), def)
		if err != nil {
			loadErrs = append(loadErrs, err)
		}
		return v
	}

	port, err := getEnvIntOrDefaultMulti([]string{"MENTORFEED_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	sampleRate, err := getEnvFloatOrDefault("TRACING_SAMPLE_RATE", k, "tracing_sample_rate", DefaultTracingSampleRate)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	cfg := &Config{
		Port:           port,
		Env:            getEnvOrDefaultMulti([]string{"MENTORFEED_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:    getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		DatabaseSchema: getEnvOrDefault("DATABASE_SCHEMA", k.String("database_schema"), DefaultDatabaseSchema),
		RedisURL:       getEnvOrKoanf("REDIS_URL", k, "redis_url"),

		CacheEnabled:    getEnvBoolOrDefault("CACHE_ENABLED", k, "cache_enabled", DefaultCacheEnabled),
		CacheTTLSeconds: intVal("CACHE_TTL_SECONDS", "cache_ttl_seconds", DefaultCacheTTLSeconds),
		CacheCodec:      strings.ToLower(getEnvOrDefault("CACHE_CODEC", k.String("cache_codec"), DefaultCacheCodec)),
		CacheKeyPrefix:  getEnvOrDefault("CACHE_KEY_PREFIX", k.String("cache_key_prefix"), DefaultCacheKeyPrefix),

		RankingAPIURL:         getEnvOrKoanf("RANKING_API_URL", k, "ranking_api_url"),
		RankingAPIKey:         getEnvOrKoanf("RANKING_API_KEY", k, "ranking_api_key"),
		RankingModel:          getEnvOrDefault("RANKING_MODEL", k.String("ranking_model"), DefaultRankingModel),
		RankingTimeoutSeconds: intVal("RANKING_TIMEOUT_SECONDS", "ranking_timeout_seconds", DefaultRankingTimeoutSeconds),
		RankingPromptsFile:    getEnvOrKoanf("RANKING_PROMPTS_FILE", k, "ranking_prompts_file"),
		RankingBreakerEnabled: getEnvBoolOrDefault("RANKING_BREAKER_ENABLED", k, "ranking_breaker_enabled", DefaultRankingBreakerEnabled),

		FeedFetchLimit: intVal("FEED_FETCH_LIMIT", "feed_fetch_limit", DefaultFeedFetchLimit),

		JWTSecret:         getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTSecretPrevious: getEnvOrKoanf("JWT_SECRET_PREVIOUS", k, "jwt_secret_previous"),

		PublicBaseURL: getEnvOrDefault("PUBLIC_BASE_URL", k.String("public_base_url"), DefaultPublicBaseURL),
		AvatarMode:    strings.ToLower(getEnvOrDefault("AVATAR_MODE", k.String("avatar_mode"), DefaultAvatarMode)),

		R2BucketName:       getEnvOrKoanf("R2_BUCKET_NAME", k, "r2_bucket_name"),
		R2AccessKeyID:      getEnvOrKoanf("R2_ACCESS_KEY_ID", k, "r2_access_key_id"),
		R2SecretAccessKey:  getEnvOrKoanf("R2_SECRET_ACCESS_KEY", k, "r2_secret_access_key"),
		R2Endpoint:         getEnvOrKoanf("R2_ENDPOINT", k, "r2_endpoint"),
		R2URLExpiryMinutes: intVal("R2_URL_EXPIRY_MINUTES", "r2_url_expiry_minutes", DefaultR2URLExpiryMinutes),

		TracingEnabled:      getEnvBoolOrDefault("TRACING_ENABLED", k, "tracing_enabled", false),
		TracingExporterType: getEnvOrDefault("TRACING_EXPORTER_TYPE", k.String("tracing_exporter_type"), DefaultTracingExporterType),
		TracingOTLPEndpoint: getEnvOrKoanf("TRACING_OTLP_ENDPOINT", k, "tracing_otlp_endpoint"),
		TracingSampleRate:   sampleRate,
		TracingInsecure:     getEnvBoolOrDefault("TRACING_INSECURE", k, "tracing_insecure", false),

		RateLimitEnabled:       getEnvBoolOrDefault("RATE_LIMIT_ENABLED", k, "rate_limit_enabled", DefaultRateLimitEnabled),
		RateLimitRequests:      intVal("RATE_LIMIT_REQUESTS", "rate_limit_requests", DefaultRateLimitRequests),
		RateLimitWindowSeconds: intVal("RATE_LIMIT_WINDOW_SECONDS", "rate_limit_window_seconds", DefaultRateLimitWindowSeconds),

		CORSAllowedOrigins: getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RankingTimeout returns the per-call oracle timeout.
func (c *Config) RankingTimeout() time.Duration {
	return time.Duration(c.RankingTimeoutSeconds) * time.Second
}

// RateLimitWindow returns the rate limit window length.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// A zero value from a YAML file falls back to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidNumber)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set,
// otherwise the koanf value when the key exists, or default. A file value of
// 0 is honored, so sampling can be switched off from YAML.
func getEnvFloatOrDefault(envKey string, k *koanf.Koanf, koanfKey string, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, ErrInvalidNumber)
		}
		return f, nil
	}
	if k.Exists(koanfKey) {
		return k.Float64(koanfKey), nil
	}
	return defaultVal, nil
}

// getEnvBoolOrDefault reads a feature flag. Unrecognized env values are ignored.
func getEnvBoolOrDefault(envKey string, k *koanf.Koanf, koanfKey string, defaultVal bool) bool {
	result := defaultVal
	if k.Exists(koanfKey) {
		result = k.Bool(koanfKey)
	}
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			result = true
		case "false", "0", "no", "off":
			result = false
		}
	}
	return result
}

// getEnvListOrKoanf reads a comma-separated env list, falling back to a YAML list.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	raw := k.Strings(koanfKey)
	if val := os.Getenv(envKey); val != "" {
		raw = strings.Split(val, ",")
	}
	var out []string
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if (c.CacheEnabled || c.RateLimitEnabled) && c.RedisURL == "" {
		errs = append(errs, ErrMissingRedisURL)
	}

	switch c.CacheCodec {
	case "json", "cbor":
	default:
		errs = append(errs, fmt.Errorf("%w (got %q)", ErrInvalidCacheCodec, c.CacheCodec))
	}

	positive := []struct {
		name  string
		value int
	}{
		{"PORT", c.Port},
		{"CACHE_TTL_SECONDS", c.CacheTTLSeconds},
		{"RANKING_TIMEOUT_SECONDS", c.RankingTimeoutSeconds},
		{"FEED_FETCH_LIMIT", c.FeedFetchLimit},
		{"R2_URL_EXPIRY_MINUTES", c.R2URLExpiryMinutes},
		{"RATE_LIMIT_REQUESTS", c.RateLimitRequests},
		{"RATE_LIMIT_WINDOW_SECONDS", c.RateLimitWindowSeconds},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s: %w (got %d)", p.name, ErrNonPositive, p.value))
		}
	}

	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		errs = append(errs, fmt.Errorf("%w (got %g)", ErrInvalidSampleRate, c.TracingSampleRate))
	}

	switch c.AvatarMode {
	case AvatarModeBase:
		if c.PublicBaseURL == "" {
			errs = append(errs, ErrMissingPublicBaseURL)
		}
	case AvatarModeR2:
		if c.R2BucketName == "" {
			errs = append(errs, ErrMissingR2BucketName)
		}
		if c.R2AccessKeyID == "" {
			errs = append(errs, ErrMissingR2AccessKeyID)
		}
		if c.R2SecretAccessKey == "" {
			errs = append(errs, ErrMissingR2SecretAccessKey)
		}
		if c.R2Endpoint == "" {
			errs = append(errs, ErrMissingR2Endpoint)
		}
	default:
		errs = append(errs, fmt.Errorf("%w (got %q)", ErrInvalidAvatarMode, c.AvatarMode))
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                    strconv.Itoa(c.Port),
		"env":                     c.Env,
		"database_url":            maskURLPassword(c.DatabaseURL),
		"database_schema":         c.DatabaseSchema,
		"redis_url":               maskURLPassword(c.RedisURL),
		"cache_enabled":           strconv.FormatBool(c.CacheEnabled),
		"cache_ttl_seconds":       strconv.Itoa(c.CacheTTLSeconds),
		"cache_codec":             c.CacheCodec,
		"cache_key_prefix":        c.CacheKeyPrefix,
		"ranking_api_url":         c.RankingAPIURL,
		"ranking_api_key":         maskSecret(c.RankingAPIKey),
		"ranking_model":           c.RankingModel,
		"ranking_timeout_seconds": strconv.Itoa(c.RankingTimeoutSeconds),
		"ranking_prompts_file":    c.RankingPromptsFile,
		"ranking_breaker_enabled": strconv.FormatBool(c.RankingBreakerEnabled),
		"feed_fetch_limit":        strconv.Itoa(c.FeedFetchLimit),
		"jwt_secret":              maskSecret(c.JWTSecret),
		"jwt_secret_previous":     maskSecret(c.JWTSecretPrevious),
		"public_base_url":         c.PublicBaseURL,
		"avatar_mode":             c.AvatarMode,
		"r2_bucket_name":          c.R2BucketName,
		"r2_access_key_id":        maskSecret(c.R2AccessKeyID),
		"r2_secret_access_key":    maskSecret(c.R2SecretAccessKey),
		"r2_endpoint":             c.R2Endpoint,
		"tracing_enabled":         strconv.FormatBool(c.TracingEnabled),
		"tracing_exporter_type":   c.TracingExporterType,
		"tracing_otlp_endpoint":   c.TracingOTLPEndpoint,
		"tracing_sample_rate":     strconv.FormatFloat(c.TracingSampleRate, 'g', -1, 64),
		"rate_limit_enabled":      strconv.FormatBool(c.RateLimitEnabled),
		"rate_limit_requests":     strconv.Itoa(c.RateLimitRequests),
		"rate_limit_window":       strconv.Itoa(c.RateLimitWindowSeconds) + "s",
		"cors_allowed_origins":    strings.Join(c.CORSAllowedOrigins, ","),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskURLPassword masks the password in a postgres:// or redis:// URL.
func maskURLPassword(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
