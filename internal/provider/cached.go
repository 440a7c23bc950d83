package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"stock-forecaster/internal/models"
)

// Cached memoizes a Provider's responses for a fixed TTL.
type Cached struct {
	next  Provider
	cache *cache.Cache
}

// NewCached wraps next with an in-memory cache.
func NewCached(next Provider, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *Cached) Name() string { return "cached(" + nameOf(c.next) + ")" }

func (c *Cached) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	key := "quote:" + symbol
	if v, ok := c.cache.Get(key); ok {
		return v.(models.Quote), nil
	}
	q, err := c.next.Quote(ctx, symbol)
	if err != nil {
		return q, err
	}
	c.cache.SetDefault(key, q)
	return q, nil
}

func (c *Cached) History(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	key := fmt.Sprintf("history:%s:%d", symbol, days)
	if v, ok := c.cache.Get(key); ok {
		return append([]models.PricePoint(nil), v.([]models.PricePoint)...), nil
	}
	points, err := c.next.History(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, append([]models.PricePoint(nil), points...))
	return points, nil
}

func (c *Cached) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	key := fmt.Sprintf("news:%s:%d", symbol, limit)
	if v, ok := c.cache.Get(key); ok {
		return append([]models.NewsItem(nil), v.([]models.NewsItem)...), nil
	}
	items, err := c.next.News(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, append([]models.NewsItem(nil), items...))
	return items, nil
}

// Flush drops every cached response.
func (c *Cached) Flush() {
	c.cache.Flush()
}
