package provider

import (
	"github.com/rs/zerolog"

	"stock-forecaster/internal/config"
	"stock-forecaster/internal/resilience"
	"stock-forecaster/pkg/utils"
)

// Stack is the assembled provider set.
type Stack struct {
	Provider  Provider
	Searcher  Searcher
	Synthetic *Synthetic
	Breakers  []*resilience.Breaker
}

// Build assembles the providers described by cfg. The HTTP feed and RSS
// news are used when configured, synthetic data backs every contract, and
// the result is cached.
func Build(cfg config.ProvidersConfig, creds config.FeedCredentials, seed int64, logger zerolog.Logger) (*Stack, error) {
	seeds := DefaultSeedTable()
	if cfg.SeedFile != "" {
		loaded, err := LoadSeedTable(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		seeds = loaded
	}

	synthetic := NewSynthetic(seeds, seed)
	primary := Composite{
		QuoteProvider:        synthetic,
		PriceHistoryProvider: synthetic,
		NewsProvider:         synthetic,
	}
	live := false
	var breakers []*resilience.Breaker

	if cfg.FeedURL != "" {
		retry := utils.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Retries + 1

		feed := NewFeed(FeedConfig{
			BaseURL:           cfg.FeedURL,
			Token:             creds.Token,
			RequestsPerMinute: cfg.RequestsPerMinute,
			Timeout:           cfg.RequestTimeout,
			Retry:             retry,
			Breaker: resilience.BreakerConfig{
				FailureThreshold: cfg.BreakerFailures,
				Cooldown:         cfg.BreakerCooldown,
			},
		}, logger.With().Str("provider", "feed").Logger())
		breakers = append(breakers, feed.Breaker())

		primary.QuoteProvider = feed
		primary.PriceHistoryProvider = feed
		primary.NewsProvider = feed
		live = true
	}

	if len(cfg.RSSFeeds) > 0 {
		primary.NewsProvider = NewRSS(cfg.RSSFeeds, logger.With().Str("provider", "rss").Logger())
		live = true
	}

	var p Provider = synthetic
	if live {
		p = NewFallback(primary, synthetic, logger)
	}

	return &Stack{
		Provider:  NewCached(p, cfg.CacheTTL),
		Searcher:  synthetic,
		Synthetic: synthetic,
		Breakers:  breakers,
	}, nil
}

// Name describes the assembled provider chain.
func (s *Stack) Name() string {
	return nameOf(s.Provider)
}
