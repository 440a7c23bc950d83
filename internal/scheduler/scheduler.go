// Package scheduler forecasts a watchlist on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/models"
)

// Predictor produces a forecast for one symbol.
type Predictor interface {
	Predict(ctx context.Context, symbol string) (models.PredictionSet, error)
}

// Sink receives every forecast a run produces.
type Sink func(symbol string, set models.PredictionSet)

// Tee returns a Sink that hands every forecast to each non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	return func(symbol string, set models.PredictionSet) {
		for _, sink := range sinks {
			if sink != nil {
				sink(symbol, set)
			}
		}
	}
}

// Run summarizes one pass over the watchlist.
type Run struct {
	ID        string
	Started   time.Time
	Finished  time.Time
	Forecasts int
	Failures  int
}

// Scheduler runs watchlist forecasts on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	predictor Predictor
	symbols   []string
	sink      Sink
	logger    zerolog.Logger
	ctx       context.Context

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler for symbols. sink may be nil.
func NewScheduler(ctx context.Context, p Predictor, symbols []string, sink Sink, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		predictor: p,
		symbols:   symbols,
		sink:      sink,
		logger:    logging.WithOperation(logger, "watch"),
		ctx:       ctx,
	}
}

// Register adds the watchlist job on spec, a six-field cron expression.
func (s *Scheduler) Register(spec string) error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("register watch job: no symbols")
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register watch job: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Strs("symbols", s.symbols).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// Next returns the next scheduled run time, or the zero time if nothing
// is scheduled.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow forecasts every watchlist symbol immediately. A run that starts
// while another is in progress is skipped.
func (s *Scheduler) RunNow() Run {
	run := Run{ID: uuid.NewString(), Started: time.Now()}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn().Str("run_id", run.ID).Msg("Previous watch run still in progress, skipping")
		run.Finished = run.Started
		return run
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	logger := s.logger.With().Str("run_id", run.ID).Logger()
	ctx := logging.WithLogger(s.ctx, logger)

	for _, symbol := range s.symbols {
		if ctx.Err() != nil {
			break
		}

		set, err := s.predictor.Predict(ctx, symbol)
		if err != nil {
			run.Failures++
			logger.Error().Err(err).Str("symbol", symbol).Msg("Watch forecast failed")
			continue
		}
		run.Forecasts++

		if n := len(set.Predictions); n > 0 {
			first, last := set.Predictions[0], set.Predictions[n-1]
			logger.Info().
				Str("symbol", set.Metadata.Symbol).
				Str("method", set.Metadata.Method).
				Float64("current", set.Metadata.CurrentPrice).
				Float64("day1_price", first.Price).
				Float64("day1_confidence", first.Confidence).
				Float64("day7_price", last.Price).
				Float64("day7_confidence", last.Confidence).
				Msg("Watch forecast")
		}
		if s.sink != nil {
			s.sink(symbol, set)
		}
	}

	run.Finished = time.Now()
	logger.Info().
		Int("forecasts", run.Forecasts).
		Int("failures", run.Failures).
		Dur("duration", run.Finished.Sub(run.Started)).
		Msg("Watch run completed")
	return run
}
