// Package config handles configuration loading for stockfusion.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STOCKFUSION_FETCH_MAX_WORKERS.
const EnvPrefix = "STOCKFUSION"

// Config represents the complete application configuration.
type Config struct {
	Fetch     FetchConfig     `mapstructure:"fetch"     yaml:"fetch"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Industry  IndustryConfig  `mapstructure:"industry"  yaml:"industry"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// FetchConfig holds fetch orchestration settings.
type FetchConfig struct {
	MaxWorkers int           `mapstructure:"max_workers" yaml:"max_workers"` // process-wide worker pool size
	KlineYears int           `mapstructure:"kline_years" yaml:"kline_years"` // price history window
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`     // per HTTP call
	Retry      RetryConfig   `mapstructure:"retry"       yaml:"retry"`
}

// RetryConfig holds the default retry budget for upstream calls.
type RetryConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"   yaml:"max_attempts"`
	BaseDelay     time.Duration `mapstructure:"base_delay"     yaml:"base_delay"`
	BackoffFactor float64       `mapstructure:"backoff_factor" yaml:"backoff_factor"`
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	Eastmoney HTTPProviderConfig `mapstructure:"eastmoney" yaml:"eastmoney"`
	Sina      HTTPProviderConfig `mapstructure:"sina"      yaml:"sina"`
	Legulegu  HTTPProviderConfig `mapstructure:"legulegu"  yaml:"legulegu"`
	Baostock  BaostockConfig     `mapstructure:"baostock"  yaml:"baostock"`
}

// HTTPProviderConfig configures a stateless HTTP provider. An empty BaseURL
// keeps the provider's production hosts.
type HTTPProviderConfig struct {
	Enabled   bool    `mapstructure:"enabled"    yaml:"enabled"`
	BaseURL   string  `mapstructure:"base_url"   yaml:"base_url"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
}

// BaostockConfig configures the session-based secondary provider.
type BaostockConfig struct {
	Enabled  bool          `mapstructure:"enabled"  yaml:"enabled"`
	Address  string        `mapstructure:"address"  yaml:"address"` // host:port
	User     string        `mapstructure:"user"     yaml:"user"`
	Password string        `mapstructure:"password" yaml:"password"`
	Timeout  time.Duration `mapstructure:"timeout"  yaml:"timeout"`
}

// IndustryConfig holds industry directory settings.
type IndustryConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"` // constituent list TTL
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stockfusion/config.yaml (home directory)
//  3. /etc/stockfusion/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockfusion"))
	v.AddConfigPath("/etc/stockfusion")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Fetch defaults
	v.SetDefault("fetch.max_workers", 8)
	v.SetDefault("fetch.kline_years", 5)
	v.SetDefault("fetch.timeout", 20*time.Second)
	v.SetDefault("fetch.retry.max_attempts", 3)
	v.SetDefault("fetch.retry.base_delay", 600*time.Millisecond)
	v.SetDefault("fetch.retry.backoff_factor", 1.6)

	// Provider defaults
	v.SetDefault("providers.eastmoney.enabled", true)
	v.SetDefault("providers.eastmoney.rate_limit", 5.0)
	v.SetDefault("providers.sina.enabled", true)
	v.SetDefault("providers.sina.rate_limit", 3.0)
	v.SetDefault("providers.legulegu.enabled", true)
	v.SetDefault("providers.legulegu.rate_limit", 1.0)
	v.SetDefault("providers.baostock.enabled", true)
	v.SetDefault("providers.baostock.address", "public-api.baostock.com:10030")
	v.SetDefault("providers.baostock.user", "anonymous")
	v.SetDefault("providers.baostock.password", "123456")
	v.SetDefault("providers.baostock.timeout", 15*time.Second)

	// Industry defaults
	v.SetDefault("industry.cache_ttl", 10*time.Minute)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads credentials from environment variables.
func overrideFromEnv(cfg *Config) {
	if user := os.Getenv(EnvPrefix + "_BAOSTOCK_USER"); user != "" {
		cfg.Providers.Baostock.User = user
	}
	if pw := os.Getenv(EnvPrefix + "_BAOSTOCK_PASSWORD"); pw != "" {
		cfg.Providers.Baostock.Password = pw
	}
}

// Validate rejects settings the fetch layer cannot run with.
func (c *Config) Validate() error {
	if c.Fetch.MaxWorkers <= 0 {
		return fmt.Errorf("fetch.max_workers must be positive, got %d", c.Fetch.MaxWorkers)
	}
	if c.Fetch.KlineYears <= 0 {
		return fmt.Errorf("fetch.kline_years must be positive, got %d", c.Fetch.KlineYears)
	}
	if c.Fetch.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.retry.max_attempts must be positive, got %d", c.Fetch.Retry.MaxAttempts)
	}
	if c.Fetch.Retry.BaseDelay < 0 {
		return fmt.Errorf("fetch.retry.base_delay must not be negative, got %s", c.Fetch.Retry.BaseDelay)
	}
	if c.Fetch.Retry.BackoffFactor < 1 {
		return fmt.Errorf("fetch.retry.backoff_factor must be >= 1, got %g", c.Fetch.Retry.BackoffFactor)
	}
	if c.Providers.Baostock.Enabled && c.Providers.Baostock.Address == "" {
		return errors.New("providers.baostock.address is required when baostock is enabled")
	}
	return nil
}

// loadDotEnv loads .env from the working directory, ignoring a missing file.
func loadDotEnv() {
	_ = godotenv.Load()
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
