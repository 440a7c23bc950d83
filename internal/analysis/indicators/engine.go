// Package indicators provides the technical indicators used by the forecaster.
// Every function is total: insufficient data yields a documented neutral value.
package indicators

import "stock-forecaster/internal/models"

// IndicatorSet holds the indicators derived from one price history.
type IndicatorSet struct {
	RSI          float64        `json:"rsi"`
	MACD         MACD           `json:"macd"`
	Bollinger    BollingerBands `json:"bollinger"`
	VolumeSignal float64        `json:"volumeSignal"`
}

// Compute derives the full indicator set from a chronologically ordered history.
func Compute(points []models.PricePoint) IndicatorSet {
	prices := ClosePrices(points)
	return IndicatorSet{
		RSI:          RSI(prices, DefaultRSIPeriod),
		MACD:         CalculateMACD(prices),
		Bollinger:    CalculateBollinger(prices, DefaultBollingerPeriod),
		VolumeSignal: VolumeSignal(points),
	}
}
