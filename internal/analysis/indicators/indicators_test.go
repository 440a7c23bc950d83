package indicators

import (
	"math"
	"testing"

	"stock-forecaster/internal/models"
)

const tolerance = 1e-9

func linearSeries(start float64, n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = start + float64(i)
	}
	return prices
}

func constantSeries(v float64, n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = v
	}
	return prices
}

func pointsWithVolumes(vols ...float64) []models.PricePoint {
	points := make([]models.PricePoint, len(vols))
	for i, v := range vols {
		points[i] = models.PricePoint{
			Timestamp: int64(i) * 86400,
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: v,
		}
	}
	return points
}

func TestRSI(t *testing.T) {
	alternating := make([]float64, 15)
	for i := range alternating {
		alternating[i] = 10 + float64(i%2)
	}

	// A crash followed by 14 straight gains: only the last 14 transitions count.
	recovery := append([]float64{500}, linearSeries(100, 15)...)

	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"insufficient data", []float64{1, 2, 3}, 50},
		{"exactly period points", linearSeries(1, 14), 50},
		{"only gains", linearSeries(1, 15), 100},
		{"only losses", []float64{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 0},
		{"balanced", alternating, 50},
		{"uses last period transitions", recovery, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.prices, DefaultRSIPeriod)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("RSI = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestEMA(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
	}{
		{"empty", nil, 12, 0},
		{"single value", []float64{5}, 12, 5},
		{"constant", constantSeries(42, 40), 12, 42},
		{"period one stops after two points", []float64{1, 2, 3}, 1, 2},
		{"period two", []float64{1, 2, 3}, 2, 2 + 5.0/9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EMA(tt.prices, tt.period)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("EMA = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestEMA_IgnoresPointsBeyondTwicePeriod(t *testing.T) {
	base := linearSeries(1, 24)
	extended := append(append([]float64{}, base...), 1000, 2000, 3000)

	if EMA(base, 12) != EMA(extended, 12) {
		t.Error("EMA(12) should only use the first 24 prices")
	}
}

func TestCalculateMACD(t *testing.T) {
	if got := CalculateMACD(linearSeries(1, 25)); got != (MACD{}) {
		t.Errorf("expected zero MACD for 25 points, got %+v", got)
	}

	if got := CalculateMACD(constantSeries(100, 30)); math.Abs(got.MACD) > tolerance {
		t.Errorf("expected zero MACD for a flat series, got %+v", got)
	}

	prices := linearSeries(100, 30)
	got := CalculateMACD(prices)
	wantMACD := EMA(prices, 12) - EMA(prices, 26)

	if math.Abs(got.MACD-wantMACD) > tolerance {
		t.Errorf("MACD = %f, want %f", got.MACD, wantMACD)
	}
	if math.Abs(got.Signal-0.9*wantMACD) > tolerance {
		t.Errorf("Signal = %f, want %f", got.Signal, 0.9*wantMACD)
	}
	if math.Abs(got.Histogram-(got.MACD-got.Signal)) > tolerance {
		t.Errorf("Histogram = %f, want %f", got.Histogram, got.MACD-got.Signal)
	}
}

func TestCalculateBollinger(t *testing.T) {
	if got := CalculateBollinger(linearSeries(1, 19), DefaultBollingerPeriod); got != (BollingerBands{}) {
		t.Errorf("expected zero bands for 19 points, got %+v", got)
	}

	flat := CalculateBollinger(constantSeries(50, 20), DefaultBollingerPeriod)
	if flat.Upper != 50 || flat.Middle != 50 || flat.Lower != 50 {
		t.Errorf("expected collapsed bands at 50, got %+v", flat)
	}

	// Leading values outside the 20-point window must not matter.
	prices := append([]float64{9999, -9999}, linearSeries(1, 20)...)
	got := CalculateBollinger(prices, DefaultBollingerPeriod)
	sd := math.Sqrt(399.0 / 12.0)

	if math.Abs(got.Middle-10.5) > tolerance {
		t.Errorf("Middle = %f, want 10.5", got.Middle)
	}
	if math.Abs(got.Upper-(10.5+2*sd)) > tolerance {
		t.Errorf("Upper = %f, want %f", got.Upper, 10.5+2*sd)
	}
	if math.Abs(got.Lower-(10.5-2*sd)) > tolerance {
		t.Errorf("Lower = %f, want %f", got.Lower, 10.5-2*sd)
	}
}

func TestBollingerPosition(t *testing.T) {
	bands := BollingerBands{Upper: 110, Middle: 100, Lower: 90}

	pos, ok := bands.Position(105)
	if !ok || math.Abs(pos-0.75) > tolerance {
		t.Errorf("Position(105) = %f, %v; want 0.75, true", pos, ok)
	}

	if _, ok := (BollingerBands{}).Position(100); ok {
		t.Error("zero-width bands should report ok=false")
	}
}

func TestVolumeSignal(t *testing.T) {
	tests := []struct {
		name   string
		points []models.PricePoint
		want   float64
	}{
		{"insufficient data", pointsWithVolumes(100, 100, 100, 500), 0},
		{"volume spike", pointsWithVolumes(100, 100, 100, 100, 200), 0.1},
		{"volume drought", pointsWithVolumes(100, 100, 100, 100, 50), -0.1},
		{"steady volume", pointsWithVolumes(100, 100, 100, 100, 100), 0},
		{"only last five count", pointsWithVolumes(1e9, 100, 100, 100, 100, 100), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VolumeSignal(tt.points); got != tt.want {
				t.Errorf("VolumeSignal = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTrend(t *testing.T) {
	prices := []float64{100, 101, 102, 103, 104, 110}

	if got := Trend(prices, 5); math.Abs(got-(110.0-101.0)/101.0) > tolerance {
		t.Errorf("Trend(5) = %f", got)
	}
	if got := Trend(prices, 10); got != 0 {
		t.Errorf("Trend with short series = %f, want 0", got)
	}
	if got := Trend([]float64{0, 1, 2, 3, 4}, 5); got != 0 {
		t.Errorf("Trend with zero base = %f, want 0", got)
	}
}

func TestCompute(t *testing.T) {
	points := make([]models.PricePoint, 30)
	for i := range points {
		c := 100 + float64(i)
		points[i] = models.PricePoint{
			Timestamp: int64(i) * 86400,
			Open:      c - 0.5, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		}
	}

	got := Compute(points)
	prices := ClosePrices(points)

	if got.RSI != RSI(prices, DefaultRSIPeriod) {
		t.Errorf("RSI mismatch: %f", got.RSI)
	}
	if got.MACD != CalculateMACD(prices) {
		t.Errorf("MACD mismatch: %+v", got.MACD)
	}
	if got.Bollinger != CalculateBollinger(prices, DefaultBollingerPeriod) {
		t.Errorf("Bollinger mismatch: %+v", got.Bollinger)
	}
	if got.VolumeSignal != 0 {
		t.Errorf("VolumeSignal = %f, want 0", got.VolumeSignal)
	}
}
