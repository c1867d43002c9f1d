// Package config provides the application configuration: an explicit value
// constructed once at process start and passed into each component's
// constructor. Values come from an optional YAML file layered under
// environment variables (a .env file is honored when present).
package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds OpenAI provider settings. BaseURL also covers
// OpenAI-compatible hosted endpoints.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty" envconfig:"OPENAI_API_KEY"`
	BaseURL      string `yaml:"base_url,omitempty" envconfig:"OPENAI_BASE_URL"`
	Organization string `yaml:"organization,omitempty" envconfig:"OPENAI_ORG_ID"`
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty" envconfig:"ANTHROPIC_API_KEY"`
}

// RetryConfig bounds the orchestrator's retry/backoff protocol.
type RetryConfig struct {
	MaxRetries      int           `yaml:"max_retries,omitempty" envconfig:"MAX_RETRIES"`
	InitialInterval time.Duration `yaml:"initial_interval,omitempty" envconfig:"RETRY_INITIAL_INTERVAL"`
	MaxInterval     time.Duration `yaml:"max_interval,omitempty" envconfig:"RETRY_MAX_INTERVAL"`
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time,omitempty" envconfig:"RETRY_MAX_ELAPSED_TIME"`
}

// RateLimitConfig holds the per-client admission ceilings.
type RateLimitConfig struct {
	PerMinute int           `yaml:"per_minute,omitempty" envconfig:"RATE_LIMIT_PER_MINUTE"`
	PerHour   int           `yaml:"per_hour,omitempty" envconfig:"RATE_LIMIT_PER_HOUR"`
	PerDay    int           `yaml:"per_day,omitempty" envconfig:"RATE_LIMIT_PER_DAY"`
	Retention time.Duration `yaml:"retention,omitempty" envconfig:"RATE_LIMIT_RETENTION"`
}

// MetricsConfig holds metrics collection bounds.
type MetricsConfig struct {
	SampleCapacity int           `yaml:"sample_capacity,omitempty" envconfig:"METRICS_SAMPLE_CAPACITY"`
	Retention      time.Duration `yaml:"retention,omitempty" envconfig:"METRICS_RETENTION"`
}

// Config is the complete application configuration.
type Config struct {
	Host         string `yaml:"host,omitempty" envconfig:"HOST"`
	Port         int    `yaml:"port,omitempty" envconfig:"PORT"`
	APIKey       string `yaml:"api_key,omitempty" envconfig:"INSOLVENCYBOT_API_KEY"`
	DefaultModel string `yaml:"default_model,omitempty" envconfig:"DEFAULT_MODEL"`
	Debug        bool   `yaml:"debug,omitempty" envconfig:"DEBUG"`
	LogLevel     string `yaml:"log_level,omitempty" envconfig:"LOG_LEVEL"`

	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	RateLimit RateLimitConfig `yaml:"rate_limit,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8000,
		DefaultModel: "gpt-3.5-turbo",
		LogLevel:     "info",
		Retry: RetryConfig{
			MaxRetries:      3,
			InitialInterval: 1 * time.Second,
			MaxInterval:     time.Minute,
			MaxElapsedTime:  5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 60,
			PerHour:   1000,
			PerDay:    10000,
			Retention: 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			SampleCapacity: 1000,
			Retention:      time.Hour,
		},
	}
}

// Load builds the configuration: environment variables take precedence, then
// the YAML file at path (if non-empty), then built-in defaults. A .env file in
// the working directory is loaded into the environment when present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; it's a development convenience.
	_ = godotenv.Load()

	var fileCfg Config
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: user-specified config path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment configuration: %w", err)
	}

	// Env wins, file fills the gaps, defaults fill the rest.
	if err := mergo.Merge(&cfg, fileCfg); err != nil {
		return nil, fmt.Errorf("failed to merge file configuration: %w", err)
	}
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return nil, fmt.Errorf("failed to merge default configuration: %w", err)
	}

	return &cfg, nil
}

// HasProviderCredential reports whether at least one provider credential is
// configured. The service can start without one, but every question will fail
// with a configuration error.
func (c *Config) HasProviderCredential() bool {
	return c.OpenAI.APIKey != "" || c.Anthropic.APIKey != ""
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
