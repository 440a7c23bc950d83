package forecast

import (
	"math"

	"github.com/sourcegraph/conc"

	"stock-forecaster/internal/analysis/indicators"
	"stock-forecaster/internal/analysis/regression"
	"stock-forecaster/internal/models"
)

// Ensemble weights.
const (
	weightLinear     = 0.4
	weightNetwork    = 0.4
	weightAR         = 0.2
	weightML         = 0.5
	sentimentFactor  = 0.02
	trendFactor      = 0.1
	horizonDecay     = 0.1
	ensembleFloor    = 0.7
	minConfidence    = 0.2
	maxConfidence    = 0.95
	shortTrendWindow = 5
)

// ensemble blends the model bank with a rule-based projection.
// Indicators and model fits are computed concurrently and joined before the
// daily loop.
func (e *Engine) ensemble(history []models.PricePoint, anchor, score float64) ([]models.Prediction, regression.Bank) {
	prices := indicators.ClosePrices(history)

	var set indicators.IndicatorSet
	var bank regression.Bank
	var wg conc.WaitGroup
	wg.Go(func() { set = indicators.Compute(history) })
	wg.Go(func() { bank = regression.FitBank(prices, e.src) })
	wg.Wait()

	n := len(prices)
	technical := technicalScore(set)
	sentimentWeight := score * sentimentFactor
	shortTrend := indicators.Trend(prices, shortTrendWindow)

	network := bank.Network.PredictNext(prices)
	ar := bank.Autoregressive.PredictNext(prices)
	base := weightLinear*bank.Linear.R2 + weightNetwork*bank.Network.Accuracy + weightAR*bank.Autoregressive.Accuracy

	predictions := make([]models.Prediction, 0, Horizon)
	for day := 1; day <= Horizon; day++ {
		d := float64(day)
		decay := math.Exp(-horizonDecay * d)

		linear := bank.Linear.Predict(float64(n + day - 1))
		ml := weightLinear*linear + weightNetwork*network + weightAR*ar

		trendWeight := shortTrend * trendFactor * decay
		traditional := anchor * (1 + technical + sentimentWeight + trendWeight)
		if !isFinite(ml) {
			ml = traditional
		}

		price := math.Max(weightML*ml+(1-weightML)*traditional, anchor*ensembleFloor)

		agreement := 1 - math.Abs(ml-traditional)/anchor
		confidence := base * agreement * decay
		if !isFinite(confidence) {
			confidence = minConfidence
		}

		predictions = append(predictions, models.Prediction{
			DayOffset:  day,
			Price:      price,
			Confidence: clamp(confidence, minConfidence, maxConfidence),
			ContributingFactors: models.Factors{
				Technical:      technical,
				Sentiment:      sentimentWeight,
				Trend:          trendWeight,
				ML:             ml,
				Volume:         set.VolumeSignal,
				RSI:            set.RSI,
				MACD:           set.MACD.MACD,
				SentimentScore: score,
			},
		})
	}
	return predictions, bank
}

// summarize reports each fitted model. Non-finite values are zeroed so the
// summary always encodes.
func summarize(bank regression.Bank) []models.ModelSummary {
	fits := bank.Fits()
	out := make([]models.ModelSummary, 0, len(fits))
	for _, fit := range fits {
		params := fit.Parameters()
		for i, v := range params {
			if !isFinite(v) {
				params[i] = 0
			}
		}
		quality := fit.Quality()
		if !isFinite(quality) {
			quality = 0
		}
		out = append(out, models.ModelSummary{Name: fit.Name(), Parameters: params, Quality: quality})
	}
	return out
}

// technicalScore maps RSI and the MACD histogram to a relative price nudge.
func technicalScore(set indicators.IndicatorSet) float64 {
	var score float64
	switch {
	case set.RSI > 70:
		score -= 0.02
	case set.RSI < 30:
		score += 0.02
	default:
		score += (50 - set.RSI) / 1000
	}

	if set.MACD.Histogram > 0 {
		score += 0.01
	} else {
		score -= 0.01
	}
	return score
}
