package provider

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/sentiment"
)

// RSS reads news from RSS or Atom feeds. Each feed URL may contain
// {symbol}, replaced with the query-escaped ticker.
type RSS struct {
	feeds  []string
	parser *gofeed.Parser
	logger zerolog.Logger
}

// NewRSS creates an RSS news provider.
func NewRSS(feeds []string, logger zerolog.Logger) *RSS {
	return &RSS{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

func (r *RSS) Name() string { return "rss" }

// News merges all feeds, newest first, and scores every item.
// It fails only when every feed fails.
func (r *RSS) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = defaultNewsLimit
	}

	var items []models.NewsItem
	seen := make(map[string]bool)
	var lastErr error
	failed := 0

	for _, tmpl := range r.feeds {
		feedURL := strings.ReplaceAll(tmpl, "{symbol}", url.QueryEscape(symbol))

		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			r.logger.Warn().Err(err).Str("feed", feedURL).Msg("Failed to parse news feed")
			lastErr = err
			failed++
			continue
		}

		for _, it := range feed.Items {
			key := it.Link
			if key == "" {
				key = it.Title
			}
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			items = append(items, fromFeedItem(it))
		}
	}

	if len(r.feeds) > 0 && failed == len(r.feeds) {
		return nil, errors.NewProviderError(r.Name(), "news", symbol, errors.Wrap(errors.ErrUpstreamUnavailable, lastErr.Error()))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt > items[j].PublishedAt
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return sentiment.Annotate(items), nil
}

func fromFeedItem(it *gofeed.Item) models.NewsItem {
	var published int64
	switch {
	case it.PublishedParsed != nil:
		published = it.PublishedParsed.Unix()
	case it.UpdatedParsed != nil:
		published = it.UpdatedParsed.Unix()
	}

	return models.NewsItem{
		Headline:    strings.TrimSpace(it.Title),
		Summary:     strings.TrimSpace(it.Description),
		URL:         it.Link,
		PublishedAt: published,
		IsRealData:  true,
	}
}
