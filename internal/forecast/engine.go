// Package forecast combines technical indicators, news sentiment and the
// regression model bank into a fixed-horizon daily price forecast.
package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/analysis/regression"
	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/sentiment"
)

// Horizon is the number of days every forecast covers.
const Horizon = 7

const (
	// minHistory is the shortest history that avoids the fallback path.
	minHistory = 5
	// defaultAnchor is used when neither a quote nor a history is available.
	defaultAnchor = 100.0
)

// Method selects how a forecast is produced.
type Method string

const (
	// MethodEnsemble blends the model bank with a rule-based projection.
	MethodEnsemble Method = "ensemble"
	// MethodClassic uses indicators, sentiment, trend and volume only.
	MethodClassic Method = "classic"
	// MethodFallback is the degenerate path used for short histories.
	MethodFallback Method = "fallback"
)

// ParseMethod parses a configured method name.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodEnsemble:
		return MethodEnsemble, nil
	case MethodClassic:
		return MethodClassic, nil
	default:
		return "", errors.NewValidationError("method", s, fmt.Sprintf("must be %q or %q", MethodEnsemble, MethodClassic))
	}
}

// Input is everything a single forecast is computed from.
type Input struct {
	Symbol       string              `json:"symbol,omitempty"`
	History      []models.PricePoint `json:"priceHistory"`
	News         []models.NewsItem   `json:"news"`
	CurrentPrice float64             `json:"currentPrice"`

	// LiveQuote reports whether CurrentPrice came from a live quote.
	LiveQuote bool `json:"liveQuote,omitempty"`
}

// Engine produces forecasts. It holds no state between calls apart from
// its random source, so one Engine may serve concurrent callers.
type Engine struct {
	method Method
	src    regression.Source
	logger zerolog.Logger
}

// NewEngine creates an Engine. A nil src is replaced by a fixed-seed source.
func NewEngine(method Method, src regression.Source, logger zerolog.Logger) *Engine {
	if method == "" || method == MethodFallback {
		method = MethodEnsemble
	}
	if src == nil {
		src = regression.NewSource(1)
	}
	return &Engine{method: method, src: src, logger: logger}
}

// Method returns the configured forecasting method.
func (e *Engine) Method() Method {
	return e.method
}

// Forecast runs the full pipeline over in. It never fails: malformed or
// insufficient input degrades to the fallback path.
func (e *Engine) Forecast(ctx context.Context, in Input) models.PredictionSet {
	history := cleanHistory(in.History)
	news := sentiment.Annotate(in.News)
	score := sentiment.Aggregate(news)
	anchor := anchorPrice(in.CurrentPrice, history)

	method := e.method
	var predictions []models.Prediction
	var fitted []models.ModelSummary
	switch {
	case len(history) < minHistory:
		method = MethodFallback
		predictions = e.fallback(anchor, score)
	case method == MethodClassic:
		predictions = e.classic(history, anchor, score)
	default:
		var bank regression.Bank
		predictions, bank = e.ensemble(history, anchor, score)
		fitted = summarize(bank)
	}

	logger := e.loggerFor(ctx)
	logger.Debug().
		Str("symbol", in.Symbol).
		Str("method", string(method)).
		Int("points", len(history)).
		Int("news", len(news)).
		Float64("sentiment", score).
		Float64("anchor", anchor).
		Msg("Forecast computed")

	return models.PredictionSet{
		Predictions: predictions,
		Metadata: models.Metadata{
			Symbol:         in.Symbol,
			SentimentScore: score,
			CurrentPrice:   anchor,
			Method:         string(method),
			DataQuality:    dataQuality(in, news),
			Models:         fitted,
		},
	}
}

// Fallback returns the degenerate forecast around currentPrice. Callers use
// it when the full pipeline cannot finish in time.
func (e *Engine) Fallback(currentPrice, sentimentScore float64) models.PredictionSet {
	anchor := anchorPrice(currentPrice, nil)
	if math.IsNaN(sentimentScore) {
		sentimentScore = 0
	}
	sentimentScore = clamp(sentimentScore, -1, 1)

	return models.PredictionSet{
		Predictions: e.fallback(anchor, sentimentScore),
		Metadata: models.Metadata{
			SentimentScore: sentimentScore,
			CurrentPrice:   anchor,
			Method:         string(MethodFallback),
		},
	}
}

// Anchor returns the price a forecast over in is anchored to.
func Anchor(in Input) float64 {
	return anchorPrice(in.CurrentPrice, cleanHistory(in.History))
}

// Quality reports how much of in came from live sources. news is the
// annotated news list.
func Quality(in Input, news []models.NewsItem) models.DataQuality {
	return dataQuality(in, news)
}

func (e *Engine) loggerFor(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return e.logger
	}
	return logging.FromContextOr(ctx, e.logger)
}

// cleanHistory drops unusable points, orders the rest by timestamp and keeps
// the last point for any repeated timestamp.
func cleanHistory(points []models.PricePoint) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if !isFinite(p.Close) || p.Close <= 0 {
			continue
		}
		if !isFinite(p.Volume) || p.Volume < 0 {
			p.Volume = 0
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})

	deduped := out[:0]
	for _, p := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Timestamp == p.Timestamp {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}
	return deduped
}

func anchorPrice(current float64, history []models.PricePoint) float64 {
	if isFinite(current) && current > 0 {
		return current
	}
	if n := len(history); n > 0 {
		return history[n-1].Close
	}
	return defaultAnchor
}

func dataQuality(in Input, news []models.NewsItem) models.DataQuality {
	q := models.DataQuality{
		HasRealStock:     in.LiveQuote,
		HistoricalPoints: len(in.History),
		NewsArticles:     len(news),
	}
	for _, p := range in.History {
		if p.IsRealData {
			q.HasRealHistorical = true
			break
		}
	}
	for _, n := range news {
		if n.IsRealData {
			q.HasRealNews = true
			break
		}
	}
	return q
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
