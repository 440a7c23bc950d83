package models

import (
	"math"
	"testing"
)

func TestPricePointValid(t *testing.T) {
	tests := []struct {
		name  string
		point PricePoint
		want  bool
	}{
		{"valid", PricePoint{Open: 10, High: 12, Low: 9, Close: 11, Volume: 100}, true},
		{"high below close", PricePoint{Open: 10, High: 10.5, Low: 9, Close: 11, Volume: 100}, false},
		{"low above open", PricePoint{Open: 10, High: 12, Low: 10.5, Close: 11, Volume: 100}, false},
		{"negative volume", PricePoint{Open: 10, High: 12, Low: 9, Close: 11, Volume: -1}, false},
		{"NaN close", PricePoint{Open: 10, High: 12, Low: 9, Close: math.NaN()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.point.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSymbols(t *testing.T) {
	if NormalizeSymbol("  reliance.ns ") != "RELIANCE.NS" {
		t.Error("NormalizeSymbol should trim and upper-case")
	}
	if !IsIndianSymbol("tcs.ns") || !IsIndianSymbol("SBIN.BO") || IsIndianSymbol("AAPL") {
		t.Error("IsIndianSymbol misclassified a ticker")
	}
}

func TestAverageConfidence(t *testing.T) {
	if (PredictionSet{}).AverageConfidence() != 0 {
		t.Error("empty set should average to 0")
	}
	set := PredictionSet{Predictions: []Prediction{{Confidence: 0.8}, {Confidence: 0.4}}}
	if math.Abs(set.AverageConfidence()-0.6) > 1e-9 {
		t.Errorf("AverageConfidence = %f", set.AverageConfidence())
	}
}
