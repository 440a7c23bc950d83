package provider

import (
	"context"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/models"
)

// Fallback serves from primary and degrades to secondary when primary
// fails or returns nothing usable.
type Fallback struct {
	primary   Provider
	secondary Provider
	logger    zerolog.Logger
}

// NewFallback creates a degrading provider.
func NewFallback(primary, secondary Provider, logger zerolog.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Name() string {
	return nameOf(f.primary) + "+" + nameOf(f.secondary)
}

func (f *Fallback) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	q, err := f.primary.Quote(ctx, symbol)
	if err == nil && q.Price > 0 {
		return q, nil
	}
	f.degraded("quote", symbol, err)
	return f.secondary.Quote(ctx, symbol)
}

func (f *Fallback) History(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	points, err := f.primary.History(ctx, symbol, days)
	if err == nil && len(points) > 0 {
		return points, nil
	}
	f.degraded("history", symbol, err)
	return f.secondary.History(ctx, symbol, days)
}

func (f *Fallback) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	items, err := f.primary.News(ctx, symbol, limit)
	if err == nil && len(items) > 0 {
		return items, nil
	}
	f.degraded("news", symbol, err)
	return f.secondary.News(ctx, symbol, limit)
}

func (f *Fallback) degraded(operation, symbol string, err error) {
	if err == nil {
		err = errors.ErrNoData
	}
	logging.LogDegraded(f.logger, nameOf(f.primary), operation, symbol, err)
}
