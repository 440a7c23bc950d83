// Package config provides configuration management for the forecaster.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"stock-forecaster/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Forecast    ForecastConfig  `mapstructure:"forecast"`
	Providers   ProvidersConfig `mapstructure:"providers"`
	Server      ServerConfig    `mapstructure:"server"`
	Watch       WatchConfig     `mapstructure:"watch"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Credentials Credentials     `mapstructure:"-"` // Loaded separately
	Dir         string          `mapstructure:"-"`
}

// ForecastConfig holds forecasting configuration.
type ForecastConfig struct {
	Method       string        `mapstructure:"method"` // "ensemble", "classic"
	Seed         int64         `mapstructure:"seed"`   // 0 seeds from the clock
	Timeout      time.Duration `mapstructure:"timeout"`
	LookbackDays int           `mapstructure:"lookback_days"`
	NewsLimit    int           `mapstructure:"news_limit"`
}

// ProvidersConfig holds market data provider configuration.
type ProvidersConfig struct {
	FeedURL           string        `mapstructure:"feed_url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	Retries           int           `mapstructure:"retries"`
	BreakerFailures   int           `mapstructure:"breaker_failures"` // 0 disables the breaker
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	RSSFeeds          []string      `mapstructure:"rss_feeds"`
	SeedFile          string        `mapstructure:"seed_file"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// WatchConfig holds the scheduled forecast configuration.
type WatchConfig struct {
	Cron           string        `mapstructure:"cron"`
	Symbols        []string      `mapstructure:"symbols"`
	WebhookURL     string        `mapstructure:"webhook_url"` // empty disables delivery
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// Credentials holds upstream credentials.
type Credentials struct {
	Feed FeedCredentials `mapstructure:"feed"`
}

// FeedCredentials holds the HTTP feed token.
type FeedCredentials struct {
	Token string `mapstructure:"token"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stock-forecaster"
	}
	return filepath.Join(home, ".config", "stock-forecaster")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. Missing files
// are created from templates and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	loadDotEnv(configDir)

	cfg := &Config{Dir: configDir}

	// Load main config
	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads .env files from the working directory and configDir.
// Variables already set in the environment win.
func loadDotEnv(configDir string) {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("forecast.method", "ensemble")
	v.SetDefault("forecast.seed", 0)
	v.SetDefault("forecast.timeout", "5s")
	v.SetDefault("forecast.lookback_days", 30)
	v.SetDefault("forecast.news_limit", 10)

	v.SetDefault("providers.feed_url", "")
	v.SetDefault("providers.requests_per_minute", 60)
	v.SetDefault("providers.request_timeout", "10s")
	v.SetDefault("providers.retries", 3)
	v.SetDefault("providers.breaker_failures", 5)
	v.SetDefault("providers.breaker_cooldown", "30s")
	v.SetDefault("providers.cache_ttl", "5m")
	v.SetDefault("providers.rss_feeds", []string{})
	v.SetDefault("providers.seed_file", "")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("watch.cron", "0 */30 * * * *")
	v.SetDefault("watch.symbols", []string{"AAPL", "MSFT", "RELIANCE.NS"})
	v.SetDefault("watch.webhook_url", "")
	v.SetDefault("watch.webhook_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, create template and use defaults
		if err := createTemplateConfig(configDir); err != nil {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FORECASTER_FEED_URL"); v != "" {
		cfg.Providers.FeedURL = v
	}
	if v := os.Getenv("FORECASTER_FEED_TOKEN"); v != "" {
		cfg.Credentials.Feed.Token = v
	}
	if v := os.Getenv("FORECASTER_METHOD"); v != "" {
		cfg.Forecast.Method = v
	}
	if v := os.Getenv("FORECASTER_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("FORECASTER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FORECASTER_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(errors.ErrConfigInvalid, "FORECASTER_SEED %q", v)
		}
		cfg.Forecast.Seed = seed
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Forecast.Method) {
	case "", "ensemble", "classic":
	default:
		return fmt.Errorf("%w: forecast.method %q (must be 'ensemble' or 'classic')", errors.ErrConfigInvalid, c.Forecast.Method)
	}

	if c.Forecast.Timeout <= 0 {
		return fmt.Errorf("%w: forecast.timeout must be positive", errors.ErrConfigInvalid)
	}
	if c.Forecast.LookbackDays < 1 || c.Forecast.LookbackDays > 365 {
		return fmt.Errorf("%w: forecast.lookback_days must be between 1 and 365", errors.ErrConfigInvalid)
	}
	if c.Forecast.NewsLimit < 0 {
		return fmt.Errorf("%w: forecast.news_limit must be non-negative", errors.ErrConfigInvalid)
	}

	if c.Providers.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: providers.requests_per_minute must be non-negative", errors.ErrConfigInvalid)
	}
	if c.Providers.Retries < 0 {
		return fmt.Errorf("%w: providers.retries must be non-negative", errors.ErrConfigInvalid)
	}
	if c.Providers.BreakerFailures < 0 || c.Providers.BreakerCooldown < 0 {
		return fmt.Errorf("%w: providers.breaker_failures and breaker_cooldown must be non-negative", errors.ErrConfigInvalid)
	}
	for _, feed := range c.Providers.RSSFeeds {
		if !strings.HasPrefix(feed, "http://") && !strings.HasPrefix(feed, "https://") {
			return fmt.Errorf("%w: rss feed %q must be an http(s) URL", errors.ErrConfigInvalid, feed)
		}
	}

	if c.Watch.Cron != "" {
		if _, err := CronParser().Parse(c.Watch.Cron); err != nil {
			return fmt.Errorf("%w: watch.cron %q: %v", errors.ErrConfigInvalid, c.Watch.Cron, err)
		}
	}
	if u := c.Watch.WebhookURL; u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("%w: watch.webhook_url %q must be an http(s) URL", errors.ErrConfigInvalid, u)
	}

	return nil
}

// CronParser returns the parser for watch schedules: six fields, seconds first.
func CronParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// UsesFeed reports whether an upstream HTTP feed is configured.
func (c *Config) UsesFeed() bool {
	return c.Providers.FeedURL != ""
}
