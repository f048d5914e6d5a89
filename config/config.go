// Package config loads the availability service configuration from file,
// .env and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	PolicyAPI PolicyAPIConfig `mapstructure:"policy_api"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Quote     QuoteConfig     `mapstructure:"quote"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PolicyAPIConfig holds the policy backend connection settings.
type PolicyAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// RateLimitConfig holds outbound rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
	Burst             int `mapstructure:"burst"`
	MaxRetries        int `mapstructure:"max_retries"`
	InitialBackoffMs  int `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int `mapstructure:"max_backoff_ms"`
}

// QuoteConfig holds quoter tuning knobs.
type QuoteConfig struct {
	MaxConcurrentFetches int           `mapstructure:"max_concurrent_fetches"`
	FetchTimeout         time.Duration `mapstructure:"fetch_timeout"`
	DefaultDisplayMode   string        `mapstructure:"default_display_mode"`
}

// CacheConfig holds the policy window cache settings.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional; log and continue when absent.
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("AVAILABILITY")

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults and env vars only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Validate checks the loaded configuration for nonsense values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: must be between 1 and 65535")
	}
	if c.Quote.MaxConcurrentFetches < 1 {
		return fmt.Errorf("quote.max_concurrent_fetches: must be at least 1")
	}
	if c.Quote.FetchTimeout <= 0 {
		return fmt.Errorf("quote.fetch_timeout: must be positive")
	}
	if c.RateLimit.RequestsPerSecond < 1 {
		return fmt.Errorf("rate_limit.requests_per_second: must be at least 1")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl: must be positive when caching is enabled")
	}
	return nil
}

// bindEnvVars binds environment variables to config keys.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("policy_api.base_url", "POLICY_API_URL")
	v.BindEnv("policy_api.api_key", "POLICY_API_KEY")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	v.BindEnv("logging.level", "LOG_LEVEL")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("policy_api.base_url", "http://localhost:8080")
	v.SetDefault("policy_api.api_key", "")

	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.max_retries", 3)
	v.SetDefault("rate_limit.initial_backoff_ms", 100)
	v.SetDefault("rate_limit.max_backoff_ms", 10000)

	v.SetDefault("quote.max_concurrent_fetches", 8)
	v.SetDefault("quote.fetch_timeout", 10*time.Second)
	v.SetDefault("quote.default_display_mode", "MIN_PER_NIGHT")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 2*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Get returns the global configuration.
func Get() *Config {
	return globalConfig
}

// PolicyAPIURL returns the policy backend URL from config or environment.
func PolicyAPIURL() string {
	if cfg := Get(); cfg != nil && cfg.PolicyAPI.BaseURL != "" {
		return cfg.PolicyAPI.BaseURL
	}
	return os.Getenv("POLICY_API_URL")
}
