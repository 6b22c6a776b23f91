// Package config reads the process configuration once from the environment,
// optionally seeded from a local untracked .env file.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	apperrors "github.com/sweetpotato0/krishimitra/errors"
)

const (
	// ModelCredentialEnv names the language model credential.
	ModelCredentialEnv = "GOOGLE_API_KEY"
	// SearchCredentialEnv names the search service credential.
	SearchCredentialEnv = "SERPAPI_API_KEY"
)

// Config is the full process configuration.
type Config struct {
	Credentials Credentials
	App         AppConfig
	LLM         LLMConfig
	Session     SessionConfig
}

// Credentials carries the two secrets. Presence is checked lazily through
// ModelCredential and SearchCredential.
type Credentials struct {
	ModelKey  string `envconfig:"GOOGLE_API_KEY"`
	SearchKey string `envconfig:"SERPAPI_API_KEY"`
}

type AppConfig struct {
	Addr    string        `envconfig:"KRISHIMITRA_ADDR" default:":8501"`
	Env     string        `envconfig:"KRISHIMITRA_ENV" default:"development"`
	Tracing TracingConfig
}

// TracingConfig selects the span exporter. Tracing is off unless Enabled.
type TracingConfig struct {
	Enabled  bool   `envconfig:"KRISHIMITRA_TRACING" default:"false"`
	Exporter string `envconfig:"KRISHIMITRA_TRACE_EXPORTER" default:"otlp"`
	Endpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type LLMConfig struct {
	Model       string  `envconfig:"KRISHIMITRA_MODEL" default:"gemini-2.0-flash"`
	Temperature float64 `envconfig:"KRISHIMITRA_TEMPERATURE" default:"0.4"`
}

// SessionConfig selects the store that keeps the last answer of each UI
// session. An empty RedisAddr selects the in-memory store.
type SessionConfig struct {
	RedisAddr     string        `envconfig:"KRISHIMITRA_REDIS_ADDR"`
	RedisPassword string        `envconfig:"KRISHIMITRA_REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"KRISHIMITRA_REDIS_DB" default:"0"`
	TTL           time.Duration `envconfig:"KRISHIMITRA_SESSION_TTL" default:"24h"`
}

var (
	loadOnce sync.Once
	loaded   *Config
	loadErr  error
)

// Load returns the process configuration. The first call loads .env (when
// present) and reads the environment; every later call returns the same value.
func Load() (*Config, error) {
	loadOnce.Do(func() {
		// A missing .env file is fine, real environment variables still apply.
		_ = godotenv.Load(".env")
		loaded, loadErr = Parse()
	})
	return loaded, loadErr
}

// Parse reads the current environment without memoization.
func Parse() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	if err := ValidateLLMConfig(cfg.LLM.Model, cfg.LLM.Temperature); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ModelCredential returns the language model key, or a ConfigurationError
// when it is absent.
func (c *Config) ModelCredential() (string, error) {
	if err := NewValidator().RequireNonEmpty(ModelCredentialEnv, c.Credentials.ModelKey).Error(); err != nil {
		return "", apperrors.NewConfigurationError(ModelCredentialEnv, nil)
	}
	return c.Credentials.ModelKey, nil
}

// SearchCredential returns the search service key, or a ConfigurationError
// when it is absent.
func (c *Config) SearchCredential() (string, error) {
	if err := NewValidator().RequireNonEmpty(SearchCredentialEnv, c.Credentials.SearchKey).Error(); err != nil {
		return "", apperrors.NewConfigurationError(SearchCredentialEnv, nil)
	}
	return c.Credentials.SearchKey, nil
}
