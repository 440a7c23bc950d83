package forecast

import (
	"math"

	"stock-forecaster/internal/analysis/indicators"
	"stock-forecaster/internal/analysis/regression"
	"stock-forecaster/internal/models"
)

// Classic weights.
const (
	classicTechnical    = 0.4
	classicSentiment    = 0.3
	classicTrend        = 0.2
	classicVolume       = 0.1
	classicShortTrend   = 0.3
	classicLongTrend    = 0.1
	classicLongWindow   = 20
	classicJitter       = 0.005
	classicTimeDecay    = 0.05
	classicDaySpread    = 0.3
	classicBandPressure = 0.015
)

// classic is the rule-based strategy without the model bank. Bollinger
// position, a long-horizon trend and volume feed a weighted daily change.
func (e *Engine) classic(history []models.PricePoint, anchor, score float64) []models.Prediction {
	prices := indicators.ClosePrices(history)
	set := indicators.Compute(history)

	technical := technicalScore(set)
	if pos, ok := set.Bollinger.Position(anchor); ok {
		switch {
		case pos > 0.8:
			technical -= classicBandPressure
		case pos < 0.2:
			technical += classicBandPressure
		}
	}

	shortTrend := indicators.Trend(prices, shortTrendWindow)
	longTrend := shortTrend
	if len(prices) >= classicLongWindow {
		longTrend = indicators.Trend(prices, classicLongWindow)
	}

	sentimentWeight := score * sentimentFactor

	predictions := make([]models.Prediction, 0, Horizon)
	for day := 1; day <= Horizon; day++ {
		d := float64(day)
		trendWeight := (shortTrend*classicShortTrend + longTrend*classicLongTrend) * math.Exp(-horizonDecay*d)

		total := technical*classicTechnical +
			sentimentWeight*classicSentiment +
			trendWeight*classicTrend +
			set.VolumeSignal*classicVolume

		jitter := regression.Uniform(e.src, -classicJitter, classicJitter)
		daily := (total + jitter) * math.Exp(-classicTimeDecay*d)
		price := anchor * (1 + daily*d*classicDaySpread)

		confidence := 0.9 - d*0.08
		if math.Abs(score) > 0.5 {
			confidence -= 0.1
		}
		if math.Abs(total) > 0.05 {
			confidence -= 0.15
		}

		predictions = append(predictions, models.Prediction{
			DayOffset:  day,
			Price:      math.Max(price, anchor*ensembleFloor),
			Confidence: clamp(confidence, minConfidence, maxConfidence),
			ContributingFactors: models.Factors{
				Technical:      technical * classicTechnical,
				Sentiment:      sentimentWeight * classicSentiment,
				Trend:          trendWeight * classicTrend,
				Volume:         set.VolumeSignal * classicVolume,
				RSI:            set.RSI,
				MACD:           set.MACD.MACD,
				SentimentScore: score,
			},
		})
	}
	return predictions
}
