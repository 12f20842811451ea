// Package config provides unified configuration loading for the query router.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the query router and the demo backends.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Backends      BackendsConfig      `yaml:"backends"`
	Builder       BuilderConfig       `yaml:"builder"`
	Cache         CacheConfig         `yaml:"cache"`
	Compras       ComprasConfig       `yaml:"compras"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// BackendsConfig holds the base URLs and call bounds for the domain backends.
type BackendsConfig struct {
	BibliotecaURL string        `yaml:"biblioteca_url"`
	ComprasURL    string        `yaml:"compras_url"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
}

// BuilderConfig selects and configures the payload builder.
type BuilderConfig struct {
	// Mode is deterministic or generative.
	Mode   string       `yaml:"mode"`
	OpenAI OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig holds settings for the generative payload builder's
// chat-completions backend.
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig holds answer-cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ComprasConfig holds the purchases demo backend's database settings.
type ComprasConfig struct {
	Driver string `yaml:"driver"` // sqlite3 or postgres
	DSN    string `yaml:"dsn"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Backends: BackendsConfig{
			BibliotecaURL: "http://127.0.0.1:8100",
			ComprasURL:    "http://127.0.0.1:8200",
			CallTimeout:   10 * time.Second,
		},
		Builder: BuilderConfig{
			Mode: "deterministic",
			OpenAI: OpenAIConfig{
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4.1-mini",
				Timeout: 60 * time.Second,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        2 * time.Minute,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Compras: ComprasConfig{
			Driver: "sqlite3",
			DSN:    "/tmp/consulta-compras.db",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "consulta",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Backends.BibliotecaURL == "" || c.Backends.ComprasURL == "" {
		return fmt.Errorf("backend base URLs must not be empty")
	}

	if c.Backends.CallTimeout <= 0 {
		return fmt.Errorf("backend call timeout must be positive")
	}

	if c.Builder.Mode != "deterministic" && c.Builder.Mode != "generative" {
		return fmt.Errorf("invalid builder mode: %s", c.Builder.Mode)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Compras.Driver != "sqlite3" && c.Compras.Driver != "postgres" {
		return fmt.Errorf("invalid compras database driver: %s", c.Compras.Driver)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("BIBLIOTECA_API"); v != "" {
		cfg.Backends.BibliotecaURL = v
	}

	if v := os.Getenv("COMPRAS_API"); v != "" {
		cfg.Backends.ComprasURL = v
	}

	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backends.CallTimeout = d
		}
	}

	if v := os.Getenv("BUILDER_MODE"); v != "" {
		cfg.Builder.Mode = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Builder.OpenAI.APIKey = v
	}

	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Builder.OpenAI.BaseURL = v
	}

	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Builder.OpenAI.Model = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Compras.Driver = "sqlite3"
			cfg.Compras.DSN = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Compras.Driver = "postgres"
			cfg.Compras.DSN = v
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
