package forecast

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/analysis/regression"
	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/models"
)

func newTestEngine(method Method) *Engine {
	return NewEngine(method, regression.NewSource(42), zerolog.Nop())
}

func historyFrom(closes ...float64) []models.PricePoint {
	points := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = models.PricePoint{
			Timestamp: int64(i) * 86400,
			Open:      c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1_000_000,
		}
	}
	return points
}

func linearHistory(start float64, n int) []models.PricePoint {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)
	}
	return historyFrom(closes...)
}

func assertShape(t *testing.T, set models.PredictionSet) {
	t.Helper()
	if len(set.Predictions) != Horizon {
		t.Fatalf("got %d predictions, want %d", len(set.Predictions), Horizon)
	}
	for i, p := range set.Predictions {
		if p.DayOffset != i+1 {
			t.Errorf("prediction %d has day %d", i, p.DayOffset)
		}
	}
}

func TestForecast_RisingSeries(t *testing.T) {
	set := newTestEngine(MethodEnsemble).Forecast(context.Background(), Input{
		History:      linearHistory(100, 30),
		CurrentPrice: 129,
	})

	assertShape(t, set)
	if set.Metadata.Method != string(MethodEnsemble) {
		t.Errorf("method = %s, want ensemble", set.Metadata.Method)
	}
	if set.Metadata.SentimentScore != 0 {
		t.Errorf("sentiment = %f, want 0 for empty news", set.Metadata.SentimentScore)
	}

	first, last := set.Predictions[0], set.Predictions[Horizon-1]
	if first.Confidence <= last.Confidence {
		t.Errorf("confidence should decay: day1 %f, day7 %f", first.Confidence, last.Confidence)
	}
	for _, p := range set.Predictions {
		if p.Price < 129*0.7 {
			t.Errorf("day %d price %f below floor", p.DayOffset, p.Price)
		}
		if p.Confidence < 0.2 || p.Confidence > 0.95 {
			t.Errorf("day %d confidence %f out of range", p.DayOffset, p.Confidence)
		}
		if p.ContributingFactors.RSI != 100 {
			t.Errorf("day %d RSI factor = %f, want 100 for a rising series", p.DayOffset, p.ContributingFactors.RSI)
		}
	}

	names := []string{"linear", "network", "autoregressive"}
	if len(set.Metadata.Models) != len(names) {
		t.Fatalf("got %d model summaries, want %d", len(set.Metadata.Models), len(names))
	}
	for i, m := range set.Metadata.Models {
		if m.Name != names[i] {
			t.Errorf("model %d = %s, want %s", i, m.Name, names[i])
		}
		if m.Quality < 0 || m.Quality > 1 {
			t.Errorf("%s quality %f out of range", m.Name, m.Quality)
		}
	}
	linear := set.Metadata.Models[0]
	if math.Abs(linear.Parameters[0]-1) > 1e-9 || linear.Quality < 0.99 {
		t.Errorf("linear fit = %v (quality %f), want slope 1 on an exact line", linear.Parameters, linear.Quality)
	}
}

func TestForecast_ShortHistoryUsesFallback(t *testing.T) {
	set := newTestEngine(MethodEnsemble).Forecast(context.Background(), Input{
		History:      historyFrom(50, 51, 52),
		CurrentPrice: 52,
	})

	assertShape(t, set)
	if set.Metadata.Method != string(MethodFallback) {
		t.Errorf("method = %s, want fallback", set.Metadata.Method)
	}
	if set.Metadata.Models != nil {
		t.Errorf("fallback forecast reported models %v", set.Metadata.Models)
	}
	for _, p := range set.Predictions {
		if p.Price < 52*0.8 {
			t.Errorf("day %d price %f below fallback floor", p.DayOffset, p.Price)
		}
		want := math.Max(0.3, 0.7-0.05*float64(p.DayOffset))
		if math.Abs(p.Confidence-want) > 1e-9 {
			t.Errorf("day %d confidence = %f, want %f", p.DayOffset, p.Confidence, want)
		}
		if p.ContributingFactors.RSI != 50 {
			t.Errorf("fallback RSI factor = %f, want 50", p.ContributingFactors.RSI)
		}
	}
}

func TestForecast_Deterministic(t *testing.T) {
	in := Input{History: linearHistory(200, 40), CurrentPrice: 240}

	for _, method := range []Method{MethodEnsemble, MethodClassic} {
		a := newTestEngine(method).Forecast(context.Background(), in)
		b := newTestEngine(method).Forecast(context.Background(), in)
		for i := range a.Predictions {
			if a.Predictions[i] != b.Predictions[i] {
				t.Errorf("%s: day %d differs between identically seeded runs", method, i+1)
			}
		}
	}
}

func TestForecast_SentimentShiftsPrices(t *testing.T) {
	history := linearHistory(100, 30)
	positive := []models.NewsItem{{Headline: "Shares surge on bullish upgrade", PublishedAt: 10}}
	negative := []models.NewsItem{{Headline: "Shares plunge after downgrade", PublishedAt: 10}}

	up := newTestEngine(MethodEnsemble).Forecast(context.Background(), Input{History: history, News: positive, CurrentPrice: 129})
	down := newTestEngine(MethodEnsemble).Forecast(context.Background(), Input{History: history, News: negative, CurrentPrice: 129})

	if up.Metadata.SentimentScore <= 0 || down.Metadata.SentimentScore >= 0 {
		t.Fatalf("unexpected sentiment: up %f, down %f", up.Metadata.SentimentScore, down.Metadata.SentimentScore)
	}
	for i := range up.Predictions {
		if up.Predictions[i].Price <= down.Predictions[i].Price {
			t.Errorf("day %d: positive news %f should exceed negative news %f",
				i+1, up.Predictions[i].Price, down.Predictions[i].Price)
		}
	}
}

func TestForecast_Classic(t *testing.T) {
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 80
	}

	set := newTestEngine(MethodClassic).Forecast(context.Background(), Input{
		History:      historyFrom(flat...),
		CurrentPrice: 80,
	})

	assertShape(t, set)
	if set.Metadata.Method != string(MethodClassic) {
		t.Errorf("method = %s, want classic", set.Metadata.Method)
	}
	if set.Metadata.Models != nil {
		t.Errorf("classic forecast reported models %v", set.Metadata.Models)
	}
	for _, p := range set.Predictions {
		want := 0.9 - 0.08*float64(p.DayOffset)
		if math.Abs(p.Confidence-want) > 1e-9 {
			t.Errorf("day %d confidence = %f, want %f", p.DayOffset, p.Confidence, want)
		}
		if p.Price < 80*0.7 {
			t.Errorf("day %d price %f below floor", p.DayOffset, p.Price)
		}
		if p.ContributingFactors.ML != 0 {
			t.Errorf("classic forecast should not report an ML factor, got %f", p.ContributingFactors.ML)
		}
	}
}

func TestForecast_AnchorPrice(t *testing.T) {
	engine := newTestEngine(MethodEnsemble)

	tests := []struct {
		name    string
		history []models.PricePoint
		current float64
		want    float64
	}{
		{"quote wins", linearHistory(10, 10), 25, 25},
		{"zero quote uses last close", linearHistory(10, 10), 0, 19},
		{"NaN quote uses last close", linearHistory(10, 10), math.NaN(), 19},
		{"nothing available", nil, -5, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := engine.Forecast(context.Background(), Input{History: tt.history, CurrentPrice: tt.current})
			if set.Metadata.CurrentPrice != tt.want {
				t.Errorf("anchor = %f, want %f", set.Metadata.CurrentPrice, tt.want)
			}
		})
	}
}

func TestForecast_DataQuality(t *testing.T) {
	history := linearHistory(100, 10)
	history[3].IsRealData = true
	news := []models.NewsItem{{Headline: "a"}, {Headline: "b", IsRealData: true}}

	set := newTestEngine(MethodEnsemble).Forecast(context.Background(), Input{
		Symbol:       "AAPL",
		History:      history,
		News:         news,
		CurrentPrice: 110,
		LiveQuote:    true,
	})

	want := models.DataQuality{
		HasRealStock:      true,
		HasRealHistorical: true,
		HasRealNews:       true,
		HistoricalPoints:  10,
		NewsArticles:      2,
	}
	if set.Metadata.DataQuality != want {
		t.Errorf("DataQuality = %+v, want %+v", set.Metadata.DataQuality, want)
	}
	if set.Metadata.Symbol != "AAPL" {
		t.Errorf("Symbol = %q", set.Metadata.Symbol)
	}
}

func TestCleanHistory(t *testing.T) {
	points := []models.PricePoint{
		{Timestamp: 3, Close: 30},
		{Timestamp: 1, Close: 10},
		{Timestamp: 2, Close: math.NaN()},
		{Timestamp: 4, Close: -1},
		{Timestamp: 1, Close: 11, Volume: math.Inf(1)},
	}

	got := cleanHistory(points)
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2: %+v", len(got), got)
	}
	if got[0].Timestamp != 1 || got[0].Close != 11 || got[0].Volume != 0 {
		t.Errorf("first point = %+v, want the later duplicate with zeroed volume", got[0])
	}
	if got[1].Timestamp != 3 {
		t.Errorf("second point = %+v", got[1])
	}
}

func TestFallback(t *testing.T) {
	set := newTestEngine(MethodEnsemble).Fallback(200, 2)

	assertShape(t, set)
	if set.Metadata.Method != string(MethodFallback) || set.Metadata.SentimentScore != 1 {
		t.Errorf("unexpected metadata: %+v", set.Metadata)
	}
	for _, p := range set.Predictions {
		if p.Price < 160 {
			t.Errorf("day %d price %f below floor", p.DayOffset, p.Price)
		}
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", MethodEnsemble, false},
		{"Ensemble", MethodEnsemble, false},
		{" classic ", MethodClassic, false},
		{"fallback", "", true},
		{"neural", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMethod(%q) error = %v", tt.in, err)
			continue
		}
		if err != nil && !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("ParseMethod(%q) error should match ErrInvalidInput", tt.in)
		}
		if got != tt.want {
			t.Errorf("ParseMethod(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
