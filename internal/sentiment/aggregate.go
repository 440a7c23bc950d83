package sentiment

import (
	"math"
	"sort"

	"stock-forecaster/internal/models"
)

const (
	// decayRate controls how quickly older items lose weight.
	decayRate = 0.1
	// defaultMagnitude is used when an item carries no usable score.
	defaultMagnitude = 0.5
)

// Aggregate combines news sentiment into a single scalar in [-1, 1].
// Items are weighted by recency: the newest item has weight 1 and the item
// at position i has weight exp(-0.1*i). Items are ordered newest first by
// PublishedAt; undated items rank as oldest, keeping their relative order.
func Aggregate(items []models.NewsItem) float64 {
	if len(items) == 0 {
		return 0
	}

	ordered := make([]models.NewsItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PublishedAt > ordered[j].PublishedAt
	})

	var weighted, weights float64
	for i, item := range ordered {
		w := math.Exp(-float64(i) * decayRate)
		weighted += polarity(item.Sentiment) * w * magnitude(item.Score)
		weights += w
	}

	if weights == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, weighted/weights))
}

func polarity(label models.SentimentLabel) float64 {
	switch label {
	case models.SentimentPositive:
		return 1
	case models.SentimentNegative:
		return -1
	default:
		return 0
	}
}

func magnitude(score float64) float64 {
	if score == 0 || math.IsNaN(score) || math.IsInf(score, 0) {
		return defaultMagnitude
	}
	return math.Abs(score)
}
