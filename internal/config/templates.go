package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Stock Forecaster Configuration

[forecast]
# Forecasting method: "ensemble" or "classic"
method = "ensemble"
# Random seed for model initialisation and jitter (0 = seed from clock)
seed = 0
# Deadline for a single forecast before falling back
timeout = "5s"
# Days of price history requested per forecast
lookback_days = 30
# Maximum news items used for sentiment
news_limit = 10

[providers]
# Upstream HTTP feed base URL (empty = synthetic data only)
feed_url = ""
# Outbound request budget
requests_per_minute = 60
request_timeout = "10s"
retries = 3
# Consecutive feed failures before requests are short-circuited (0 = off)
breaker_failures = 5
breaker_cooldown = "30s"
# In-memory cache lifetime for provider responses
cache_ttl = "5m"
# RSS/Atom news feeds, {symbol} is replaced with the ticker
rss_feeds = []
# YAML seed table for synthetic data (empty = built-in table)
seed_file = ""

[server]
listen = ":8080"
shutdown_timeout = "10s"

[watch]
# Six-field cron expression, seconds first
cron = "0 */30 * * * *"
symbols = ["AAPL", "MSFT", "RELIANCE.NS"]
# POST every scheduled forecast as JSON to this URL (empty = off)
webhook_url = ""
webhook_timeout = "10s"

[logging]
# debug, info, warn, error
level = "info"
console = true
file = false
file_path = ""
max_size = 100
max_backups = 7
max_age = 30
`

const credentialsTemplate = `# Stock Forecaster Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[feed]
token = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return nil
}
