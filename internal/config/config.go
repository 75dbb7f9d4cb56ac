// Package config loads the BFA configuration.
//
// Values are layered, lowest precedence first:
//  1. defaults (Defaults)
//  2. YAML file, if BFA_CONFIG is set
//  3. environment variables (PORT, LOG_LEVEL, SUPABASE_URL, ...)
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileEnv names the optional YAML config file.
const FileEnv = "BFA_CONFIG"

// Config holds all application configuration.
type Config struct {
	// Server
	Port               int      `koanf:"port"`
	LogLevel           string   `koanf:"log_level"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// HTTP client
	HTTPTimeout time.Duration `koanf:"http_timeout"`

	// Resilience
	MaxRetries     int           `koanf:"max_retries"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	MaxConcurrency int           `koanf:"max_concurrency"`

	// Cache
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Observability
	OTLPEndpoint string `koanf:"otel_exporter_otlp_endpoint"`

	// Storage. DATABASE_URL wins over Supabase; with neither, data is kept
	// in memory.
	DatabaseURL        string `koanf:"database_url"`
	SupabaseURL        string `koanf:"supabase_url"`
	SupabaseAnonKey    string `koanf:"supabase_anon_key"`
	SupabaseServiceKey string `koanf:"supabase_service_role_key"`
	RedisURL           string `koanf:"redis_url"`

	// Auth. Access tokens are issued by Supabase and signed with this secret.
	JWTSecret string `koanf:"supabase_jwt_secret"`

	// LLM
	AnthropicAPIKey  string        `koanf:"anthropic_api_key"`
	AnthropicModel   string        `koanf:"anthropic_model"`
	AnthropicBaseURL string        `koanf:"anthropic_base_url"`
	LLMRateLimit     float64       `koanf:"llm_rate_limit"`
	LLMRetryBackoff  time.Duration `koanf:"llm_retry_backoff"`

	// Exchange rates
	ExchangeRateAPIKey   string `koanf:"exchange_rate_api_key"`
	ExchangePrimaryURL   string `koanf:"exchange_primary_url"`
	ExchangeSecondaryURL string `koanf:"exchange_secondary_url"`

	// Jobs
	RateRefreshSpec       string        `koanf:"rate_refresh_spec"`
	SessionSweepSpec      string        `koanf:"session_sweep_spec"`
	TrackingSessionMaxAge time.Duration `koanf:"tracking_session_max_age"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Port:               8080,
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"*"},

		HTTPTimeout: 10 * time.Second,

		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxConcurrency: 50,

		CacheTTL: time.Hour,

		AnthropicModel:  "claude-3-5-haiku-latest",
		LLMRateLimit:    5,
		LLMRetryBackoff: 2 * time.Second,

		RateRefreshSpec:       "@every 1h",
		SessionSweepSpec:      "@every 10m",
		TrackingSessionMaxAge: 30 * time.Minute,
	}
}

// Load reads the configuration. Unknown environment variables are ignored.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	// PORT -> port, SUPABASE_URL -> supabase_url. Keys keep their underscores.
	envProvider := env.Provider("", ".", strings.ToLower)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max_retries must not be negative"))
	}
	if c.LLMRateLimit <= 0 {
		errs = append(errs, errors.New("llm_rate_limit must be positive"))
	}
	if c.SupabaseURL != "" && c.SupabaseServiceKey == "" && c.SupabaseAnonKey == "" {
		errs = append(errs, errors.New("supabase_url is set without an api key"))
	}
	if c.TrackingSessionMaxAge <= 0 {
		errs = append(errs, errors.New("tracking_session_max_age must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// UseSupabase reports whether the Supabase REST store is configured.
func (c *Config) UseSupabase() bool {
	return c.SupabaseURL != "" && c.DatabaseURL == ""
}

// SupabaseKey returns the service role key, falling back to the anon key.
func (c *Config) SupabaseKey() string {
	if c.SupabaseServiceKey != "" {
		return c.SupabaseServiceKey
	}
	return c.SupabaseAnonKey
}

// SupabaseAPIKey returns the key sent as the apikey header: the anon key,
// falling back to the service role key.
func (c *Config) SupabaseAPIKey() string {
	if c.SupabaseAnonKey != "" {
		return c.SupabaseAnonKey
	}
	return c.SupabaseServiceKey
}
