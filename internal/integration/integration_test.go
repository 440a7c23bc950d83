// Package integration exercises the forecaster end to end: upstream feed,
// provider stack, predictor, HTTP API, scheduler and stream hub.
package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-forecaster/internal/analysis/regression"
	"stock-forecaster/internal/api"
	"stock-forecaster/internal/config"
	"stock-forecaster/internal/forecast"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/predictor"
	"stock-forecaster/internal/provider"
	"stock-forecaster/internal/resilience"
	"stock-forecaster/internal/scheduler"
	"stock-forecaster/internal/stream"
)

const horizon = 7

// upstream is a fake market-data feed. While down it answers 503.
type upstream struct {
	down  atomic.Bool
	calls atomic.Int32
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.calls.Add(1)
	if u.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "stock" {
		http.NotFound(w, r)
		return
	}
	symbol := parts[1]
	w.Header().Set("Content-Type", "application/json")

	switch {
	case len(parts) == 2:
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol": symbol, "price": 200.0, "change": 2.0, "changePercent": 1.0,
		})
	case parts[2] == "historical":
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		candles := make([]map[string]interface{}, 0, 30)
		for i := 0; i < 30; i++ {
			c := 170.0 + float64(i)
			candles = append(candles, map[string]interface{}{
				"t": start.AddDate(0, 0, i).Unix(),
				"o": c - 0.5, "h": c + 1, "l": c - 1, "c": c, "v": 1e6 + float64(i)*1e4,
			})
		}
		_ = json.NewEncoder(w).Encode(candles)
	case parts[2] == "news":
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"headline": symbol + " beats estimates, shares surge", "datetime": 1704067200},
			{"headline": symbol + " announces record growth", "datetime": 1704153600},
		})
	default:
		http.NotFound(w, r)
	}
}

func newService(t *testing.T, feedURL string) (*predictor.Service, *provider.Stack) {
	t.Helper()
	cfg := config.ProvidersConfig{
		FeedURL:         feedURL,
		RequestTimeout:  time.Second,
		Retries:         0,
		BreakerFailures: 2,
		BreakerCooldown: time.Hour,
	}
	stack, err := provider.Build(cfg, config.FeedCredentials{Token: "test"}, 7, zerolog.Nop())
	require.NoError(t, err)

	engine := forecast.NewEngine(forecast.MethodEnsemble, regression.NewSource(7), zerolog.Nop())
	return predictor.NewService(engine, stack.Provider, stack.Searcher, predictor.DefaultOptions(), zerolog.Nop()), stack
}

func assertWellFormed(t *testing.T, set models.PredictionSet) {
	t.Helper()
	require.Len(t, set.Predictions, horizon)
	for i, p := range set.Predictions {
		assert.Equal(t, i+1, p.DayOffset)
		assert.Greater(t, p.Price, 0.0)
		assert.GreaterOrEqual(t, p.Confidence, 0.0)
		assert.LessOrEqual(t, p.Confidence, 1.0)
	}
}

func TestEndToEnd_LiveFeed(t *testing.T) {
	feed := &upstream{}
	srv := httptest.NewServer(feed)
	defer srv.Close()

	svc, stack := newService(t, srv.URL)

	set, err := svc.Predict(context.Background(), "aapl")
	require.NoError(t, err)
	assertWellFormed(t, set)

	assert.Equal(t, "AAPL", set.Metadata.Symbol)
	assert.Equal(t, 200.0, set.Metadata.CurrentPrice)
	assert.True(t, set.Metadata.DataQuality.HasRealStock)
	assert.True(t, set.Metadata.DataQuality.HasRealHistorical)
	assert.True(t, set.Metadata.DataQuality.HasRealNews)
	assert.Equal(t, 30, set.Metadata.DataQuality.HistoricalPoints)
	assert.Equal(t, 2, set.Metadata.DataQuality.NewsArticles)
	assert.Greater(t, set.Metadata.SentimentScore, 0.0)

	calls := feed.calls.Load()
	_, err = svc.Predict(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, calls, feed.calls.Load(), "second forecast is served from cache")

	require.Len(t, stack.Breakers, 1)
	assert.Equal(t, resilience.CircuitClosed, stack.Breakers[0].State())
}

func TestEndToEnd_OutageDegradesToSynthetic(t *testing.T) {
	feed := &upstream{}
	feed.down.Store(true)
	srv := httptest.NewServer(feed)
	defer srv.Close()

	svc, stack := newService(t, srv.URL)

	set, err := svc.Predict(context.Background(), "MSFT")
	require.NoError(t, err)
	assertWellFormed(t, set)
	assert.False(t, set.Metadata.DataQuality.HasRealStock)
	assert.False(t, set.Metadata.DataQuality.HasRealHistorical)

	assert.Equal(t, resilience.CircuitOpen, stack.Breakers[0].State())

	server := api.NewServer(svc, ":0", time.Second, zerolog.Nop())
	server.WatchBreakers(stack.Breakers...)
	httpSrv := httptest.NewServer(server.Handler())
	defer httpSrv.Close()

	resp, err := http.Get(httpSrv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "degraded", health.Status)

	// The open circuit stops further upstream traffic.
	calls := feed.calls.Load()
	_, err = svc.Predict(context.Background(), "GOOGL")
	require.NoError(t, err)
	assert.Equal(t, calls, feed.calls.Load())
}

func TestEndToEnd_ScheduledForecastsReachStream(t *testing.T) {
	srv := httptest.NewServer(&upstream{})
	defer srv.Close()

	svc, _ := newService(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := stream.NewHub(zerolog.Nop())
	hub.Start(ctx)
	defer hub.Stop()

	server := api.NewServer(svc, ":0", time.Second, zerolog.Nop())
	server.StreamFrom(hub)
	httpSrv := httptest.NewServer(server.Handler())
	defer httpSrv.Close()

	resp, err := http.Get(httpSrv.URL + "/api/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var mu sync.Mutex
	var sunk []string
	record := func(symbol string, _ models.PredictionSet) {
		mu.Lock()
		sunk = append(sunk, symbol)
		mu.Unlock()
	}
	publish := func(symbol string, set models.PredictionSet) { hub.Publish(symbol, set) }

	symbols := []string{"AAPL", "TCS.NS"}
	s := scheduler.NewScheduler(ctx, svc, symbols, scheduler.Tee(record, publish), zerolog.Nop())
	run := s.RunNow()
	assert.Equal(t, 2, run.Forecasts)
	assert.Equal(t, 0, run.Failures)

	got := map[string]bool{}
	reader := bufio.NewReader(resp.Body)
	for len(got) < len(symbols) {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev stream.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		assertWellFormed(t, ev.Forecast)
		got[ev.Symbol] = true
	}
	assert.Equal(t, map[string]bool{"AAPL": true, "TCS.NS": true}, got)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, symbols, sunk)
}

func TestEndToEnd_ForecastEndpointIsDeterministic(t *testing.T) {
	body := `{"symbol":"demo","currentPrice":50,"priceHistory":[` + candles(20) + `],"news":[{"headline":"Demo posts strong profit"}]}`

	first := postForecast(t, body)
	second := postForecast(t, body)

	assertWellFormed(t, first)
	assert.Equal(t, "DEMO", first.Metadata.Symbol)
	assert.Equal(t, 50.0, first.Metadata.CurrentPrice)
	assert.Equal(t, first, second)
}

// postForecast posts body to a fresh server so each call starts from the same seed.
func postForecast(t *testing.T, body string) models.PredictionSet {
	t.Helper()
	svc, _ := newService(t, "")
	httpSrv := httptest.NewServer(api.NewServer(svc, ":0", time.Second, zerolog.Nop()).Handler())
	defer httpSrv.Close()

	resp, err := http.Post(httpSrv.URL+"/api/forecast", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var set models.PredictionSet
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&set))
	return set
}

func candles(n int) string {
	parts := make([]string, n)
	for i := range parts {
		c := 40.0 + float64(i)*0.5
		parts[i] = fmt.Sprintf(`{"t":%d,"o":%g,"h":%g,"l":%g,"c":%g,"v":%d}`,
			1704067200+int64(i)*86400, c, c+1, c-1, c, 100000+i*1000)
	}
	return strings.Join(parts, ",")
}
