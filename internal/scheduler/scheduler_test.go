package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-forecaster/internal/models"
)

type fakePredictor struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]bool
	block  chan struct{}
	called chan struct{}
}

func (f *fakePredictor) Predict(ctx context.Context, symbol string) (models.PredictionSet, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	if f.called != nil {
		f.called <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.fail[symbol] {
		return models.PredictionSet{}, fmt.Errorf("no data for %s", symbol)
	}
	return models.PredictionSet{
		Predictions: []models.Prediction{{DayOffset: 1, Price: 10, Confidence: 0.8}, {DayOffset: 7, Price: 11, Confidence: 0.5}},
		Metadata:    models.Metadata{Symbol: symbol, Method: "ensemble", CurrentPrice: 10},
	}, nil
}

func TestRunNow(t *testing.T) {
	p := &fakePredictor{fail: map[string]bool{"BAD": true}}

	var got []string
	sink := func(symbol string, set models.PredictionSet) {
		got = append(got, symbol)
		assert.Len(t, set.Predictions, 2)
	}

	s := NewScheduler(context.Background(), p, []string{"AAPL", "BAD", "MSFT"}, sink, zerolog.Nop())
	run := s.RunNow()

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 2, run.Forecasts)
	assert.Equal(t, 1, run.Failures)
	assert.False(t, run.Finished.Before(run.Started))
	assert.Equal(t, []string{"AAPL", "BAD", "MSFT"}, p.calls)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)

	again := s.RunNow()
	assert.NotEqual(t, run.ID, again.ID, "every run gets its own ID")
}

func TestRunNow_SkipsOverlappingRuns(t *testing.T) {
	p := &fakePredictor{block: make(chan struct{}), called: make(chan struct{}, 1)}
	s := NewScheduler(context.Background(), p, []string{"AAPL"}, nil, zerolog.Nop())

	done := make(chan Run)
	go func() { done <- s.RunNow() }()
	<-p.called

	skipped := s.RunNow()
	assert.Equal(t, 0, skipped.Forecasts)

	close(p.block)
	first := <-done
	assert.Equal(t, 1, first.Forecasts)
}

func TestRunNow_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakePredictor{}
	run := NewScheduler(ctx, p, []string{"AAPL", "MSFT"}, nil, zerolog.Nop()).RunNow()
	assert.Equal(t, 0, run.Forecasts)
	assert.Empty(t, p.calls)
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), &fakePredictor{}, []string{"AAPL"}, nil, zerolog.Nop())

	assert.Error(t, s.Register("not a schedule"))
	require.NoError(t, s.Register("0 */30 * * * *"))

	s.Start()
	defer s.Stop()
	assert.True(t, s.Next().After(time.Now().Add(-time.Second)))

	empty := NewScheduler(context.Background(), &fakePredictor{}, nil, nil, zerolog.Nop())
	assert.Error(t, empty.Register("@every 1m"))
}

func TestScheduledRun(t *testing.T) {
	p := &fakePredictor{called: make(chan struct{}, 4)}
	s := NewScheduler(context.Background(), p, []string{"AAPL"}, nil, zerolog.Nop())
	require.NoError(t, s.Register("* * * * * *"))

	s.Start()
	defer s.Stop()

	select {
	case <-p.called:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled run did not fire")
	}
}

func TestTee(t *testing.T) {
	var order []string
	sink := Tee(
		func(symbol string, _ models.PredictionSet) { order = append(order, "a:"+symbol) },
		nil,
		func(symbol string, _ models.PredictionSet) { order = append(order, "b:"+symbol) },
	)

	sink("AAPL", models.PredictionSet{})
	assert.Equal(t, []string{"a:AAPL", "b:AAPL"}, order)
}
