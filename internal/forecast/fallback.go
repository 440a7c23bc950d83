package forecast

import (
	"math"

	"stock-forecaster/internal/analysis/regression"
	"stock-forecaster/internal/models"
)

const (
	fallbackJitter     = 0.015
	fallbackFloor      = 0.8
	fallbackMinConf    = 0.3
	fallbackBaseConf   = 0.7
	fallbackConfDecay  = 0.05
	fallbackDaySpread  = 0.2
	fallbackSentWeight = 0.01
)

// fallback projects a small random walk nudged by sentiment.
func (e *Engine) fallback(anchor, score float64) []models.Prediction {
	predictions := make([]models.Prediction, 0, Horizon)
	for day := 1; day <= Horizon; day++ {
		d := float64(day)
		change := regression.Uniform(e.src, -fallbackJitter, fallbackJitter)
		influence := score * fallbackSentWeight
		price := anchor * (1 + (change+influence)*d*fallbackDaySpread)

		predictions = append(predictions, models.Prediction{
			DayOffset:  day,
			Price:      math.Max(price, anchor*fallbackFloor),
			Confidence: math.Max(fallbackMinConf, fallbackBaseConf-d*fallbackConfDecay),
			ContributingFactors: models.Factors{
				Sentiment:      influence,
				Trend:          change,
				RSI:            50,
				SentimentScore: score,
			},
		})
	}
	return predictions
}
