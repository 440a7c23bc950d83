package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stock-forecaster/internal/errors"
)

func TestLoad_CreatesTemplatesWithDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, name := range []string{"config.toml", "credentials.toml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s was not created: %v", name, err)
		}
	}

	if cfg.Forecast.Method != "ensemble" {
		t.Errorf("Method = %q, want ensemble", cfg.Forecast.Method)
	}
	if cfg.Forecast.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s, want 5s", cfg.Forecast.Timeout)
	}
	if cfg.Forecast.LookbackDays != 30 || cfg.Forecast.NewsLimit != 10 {
		t.Errorf("unexpected forecast defaults: %+v", cfg.Forecast)
	}
	if cfg.Providers.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %s, want 5m", cfg.Providers.CacheTTL)
	}
	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if cfg.UsesFeed() {
		t.Error("default config should not use a feed")
	}

	// The generated template must load cleanly on the next run.
	again, err := Load(dir)
	if err != nil {
		t.Fatalf("reloading template: %v", err)
	}
	if again.Watch.Cron != cfg.Watch.Cron || len(again.Watch.Symbols) != 3 {
		t.Errorf("template and defaults disagree: %+v vs %+v", again.Watch, cfg.Watch)
	}
}

func TestLoad_ReadsFilesAndEnv(t *testing.T) {
	dir := t.TempDir()

	config := `
[forecast]
method = "classic"
seed = 7
timeout = "2s"
lookback_days = 60

[providers]
feed_url = "http://localhost:9000/api"
rss_feeds = ["https://example.com/rss?q={symbol}"]
`
	creds := `
[feed]
token = "from-file"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(creds), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FORECASTER_FEED_TOKEN", "from-env")
	t.Setenv("FORECASTER_SEED", "99")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Forecast.Method != "classic" || cfg.Forecast.Timeout != 2*time.Second || cfg.Forecast.LookbackDays != 60 {
		t.Errorf("forecast section not read: %+v", cfg.Forecast)
	}
	if cfg.Forecast.Seed != 99 {
		t.Errorf("Seed = %d, want env override 99", cfg.Forecast.Seed)
	}
	if cfg.Credentials.Feed.Token != "from-env" {
		t.Errorf("Token = %q, want env override", cfg.Credentials.Feed.Token)
	}
	if !cfg.UsesFeed() || len(cfg.Providers.RSSFeeds) != 1 {
		t.Errorf("providers section not read: %+v", cfg.Providers)
	}
	if cfg.Forecast.NewsLimit != 10 {
		t.Errorf("NewsLimit = %d, want default 10", cfg.Forecast.NewsLimit)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FORECASTER_METHOD=classic\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FORECASTER_METHOD", "")
	os.Unsetenv("FORECASTER_METHOD")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Forecast.Method != "classic" {
		t.Errorf("Method = %q, want classic from .env", cfg.Forecast.Method)
	}
}

func TestLoad_InvalidSeed(t *testing.T) {
	t.Setenv("FORECASTER_SEED", "abc")
	if _, err := Load(t.TempDir()); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Forecast: ForecastConfig{Method: "ensemble", Timeout: time.Second, LookbackDays: 30, NewsLimit: 10},
			Watch:    WatchConfig{Cron: "0 */30 * * * *"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"classic method", func(c *Config) { c.Forecast.Method = "Classic" }, false},
		{"unknown method", func(c *Config) { c.Forecast.Method = "lstm" }, true},
		{"zero timeout", func(c *Config) { c.Forecast.Timeout = 0 }, true},
		{"lookback too long", func(c *Config) { c.Forecast.LookbackDays = 400 }, true},
		{"negative retries", func(c *Config) { c.Providers.Retries = -1 }, true},
		{"bad rss url", func(c *Config) { c.Providers.RSSFeeds = []string{"ftp://x"} }, true},
		{"five field cron", func(c *Config) { c.Watch.Cron = "*/5 * * * *" }, true},
		{"descriptor cron", func(c *Config) { c.Watch.Cron = "@hourly" }, false},
		{"webhook url", func(c *Config) { c.Watch.WebhookURL = "https://hooks.example.com/f" }, false},
		{"webhook scheme", func(c *Config) { c.Watch.WebhookURL = "ftp://hooks.example.com" }, true},
		{"negative breaker", func(c *Config) { c.Providers.BreakerFailures = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrConfigInvalid) {
				t.Errorf("error should wrap ErrConfigInvalid: %v", err)
			}
		})
	}
}
