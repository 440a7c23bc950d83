// Package provider supplies the market data a forecast is built from:
// quotes, daily price history and news. Sources include an upstream HTTP
// feed, RSS news feeds and a seeded synthetic generator, composed with
// fallback and caching decorators.
package provider

import (
	"context"
	"fmt"

	"stock-forecaster/internal/models"
)

// QuoteProvider supplies the latest quote for a symbol.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

// PriceHistoryProvider supplies daily OHLCV points, oldest first.
type PriceHistoryProvider interface {
	History(ctx context.Context, symbol string, days int) ([]models.PricePoint, error)
}

// NewsProvider supplies recent news, newest first.
type NewsProvider interface {
	News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
}

// Searcher looks up listings by symbol or company name.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Listing, error)
}

// Provider supplies everything a forecast needs.
type Provider interface {
	QuoteProvider
	PriceHistoryProvider
	NewsProvider
}

// Composite assembles a Provider from independent sources.
type Composite struct {
	QuoteProvider
	PriceHistoryProvider
	NewsProvider
}

// Name describes the composed sources.
func (c Composite) Name() string {
	q, h, n := nameOf(c.QuoteProvider), nameOf(c.PriceHistoryProvider), nameOf(c.NewsProvider)
	if q == h && h == n {
		return q
	}
	return fmt.Sprintf("quote=%s,history=%s,news=%s", q, h, n)
}

type named interface {
	Name() string
}

func nameOf(p interface{}) string {
	if n, ok := p.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}

const (
	defaultHistoryDays = 30
	defaultNewsLimit   = 10
	defaultSearchLimit = 15
)
