// Package predictor orchestrates a forecast for one symbol: it gathers the
// quote, price history and news from the providers, then runs the forecast
// engine under a deadline.
package predictor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"stock-forecaster/internal/analysis/indicators"
	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/forecast"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/provider"
	"stock-forecaster/internal/security"
	"stock-forecaster/internal/sentiment"
)

// Options tunes a Service.
type Options struct {
	LookbackDays int
	NewsLimit    int
	Timeout      time.Duration
}

// DefaultOptions returns the default lookback, news limit and deadline.
func DefaultOptions() Options {
	return Options{LookbackDays: 30, NewsLimit: 10, Timeout: 5 * time.Second}
}

// Service produces forecasts for symbols.
type Service struct {
	engine   *forecast.Engine
	data     provider.Provider
	searcher provider.Searcher
	opts     Options
	logger   zerolog.Logger
}

// NewService creates a forecasting service. searcher may be nil.
func NewService(engine *forecast.Engine, data provider.Provider, searcher provider.Searcher, opts Options, logger zerolog.Logger) *Service {
	defaults := DefaultOptions()
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = defaults.LookbackDays
	}
	if opts.NewsLimit <= 0 {
		opts.NewsLimit = defaults.NewsLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	return &Service{engine: engine, data: data, searcher: searcher, opts: opts, logger: logger}
}

// Engine returns the underlying forecast engine.
func (s *Service) Engine() *forecast.Engine {
	return s.engine
}

// Inputs is the raw data gathered for one symbol.
type Inputs struct {
	Quote   models.Quote
	History []models.PricePoint
	News    []models.NewsItem
}

// Gather fetches the quote, history and news concurrently. A failing source
// leaves its part empty.
func (s *Service) Gather(ctx context.Context, symbol string) Inputs {
	logger := logging.FromContextOr(ctx, s.logger)

	var in Inputs
	var wg conc.WaitGroup
	wg.Go(func() {
		q, err := s.data.Quote(ctx, symbol)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable")
			return
		}
		in.Quote = q
	})
	wg.Go(func() {
		points, err := s.data.History(ctx, symbol, s.opts.LookbackDays)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("Price history unavailable")
			return
		}
		in.History = points
	})
	wg.Go(func() {
		items, err := s.data.News(ctx, symbol, s.opts.NewsLimit)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("News unavailable")
			return
		}
		in.News = items
	})
	wg.Wait()

	return in
}

// Predict forecasts symbol. If the engine does not finish within the
// configured timeout or the caller's deadline, the fallback forecast is
// returned instead.
func (s *Service) Predict(ctx context.Context, symbol string) (models.PredictionSet, error) {
	symbol, err := security.ValidateSymbol(symbol)
	if err != nil {
		return models.PredictionSet{}, err
	}

	ctx, logger := s.withRequest(ctx, symbol)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	in := s.Gather(ctx, symbol)
	input := forecast.Input{
		Symbol:       symbol,
		History:      in.History,
		News:         in.News,
		CurrentPrice: in.Quote.Price,
		LiveQuote:    in.Quote.IsRealData && in.Quote.Price > 0,
	}

	set := s.run(ctx, input)
	if n := len(set.Predictions); n > 0 {
		logging.LogForecast(logger, symbol, set.Metadata.Method, set.Predictions[0], set.Predictions[n-1], time.Since(start))
	}
	return set, nil
}

// Forecast runs the engine over caller-supplied input under the deadline.
func (s *Service) Forecast(ctx context.Context, in forecast.Input) models.PredictionSet {
	ctx, _ = s.withRequest(ctx, in.Symbol)
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.run(ctx, in)
}

func (s *Service) run(ctx context.Context, in forecast.Input) models.PredictionSet {
	if ctx.Err() != nil {
		return s.fallback(ctx, in)
	}

	done := make(chan models.PredictionSet, 1)
	go func() {
		done <- s.engine.Forecast(ctx, in)
	}()

	select {
	case set := <-done:
		return set
	case <-ctx.Done():
		return s.fallback(ctx, in)
	}
}

func (s *Service) fallback(ctx context.Context, in forecast.Input) models.PredictionSet {
	logger := logging.FromContextOr(ctx, s.logger)
	logger.Warn().
		Str("symbol", in.Symbol).
		Err(errors.ErrTimeout).
		Msg("Forecast deadline exceeded, using fallback")

	news := sentiment.Annotate(in.News)
	set := s.engine.Fallback(forecast.Anchor(in), sentiment.Aggregate(news))
	set.Metadata.Symbol = in.Symbol
	set.Metadata.DataQuality = forecast.Quality(in, news)
	return set
}

// Indicators computes the technical indicators for symbol's history.
func (s *Service) Indicators(ctx context.Context, symbol string) (indicators.IndicatorSet, []models.PricePoint, error) {
	symbol, err := security.ValidateSymbol(symbol)
	if err != nil {
		return indicators.IndicatorSet{}, nil, err
	}

	points, err := s.data.History(ctx, symbol, s.opts.LookbackDays)
	if err != nil {
		return indicators.IndicatorSet{}, nil, err
	}
	return indicators.Compute(points), points, nil
}

// Quote returns the latest quote for symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol, err := security.ValidateSymbol(symbol)
	if err != nil {
		return models.Quote{}, err
	}
	return s.data.Quote(ctx, symbol)
}

// History returns days of price history for symbol.
func (s *Service) History(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	symbol, err := security.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.data.History(ctx, symbol, days)
}

// News returns up to limit news items for symbol.
func (s *Service) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	symbol, err := security.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.data.News(ctx, symbol, limit)
}

// Search looks up listings matching query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.Listing, error) {
	if s.searcher == nil {
		return nil, nil
	}
	return s.searcher.Search(ctx, query, limit)
}

func (s *Service) withRequest(ctx context.Context, symbol string) (context.Context, zerolog.Logger) {
	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logging.ContextWithRequestID(ctx, requestID)
	}

	logger := logging.WithRequestID(logging.FromContextOr(ctx, s.logger), requestID)
	if symbol != "" {
		logger = logging.WithSymbol(logger, symbol)
	}
	return logging.WithLogger(ctx, logger), logger
}
