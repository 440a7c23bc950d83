// Package sentiment provides lexicon-based sentiment scoring for news text.
package sentiment

import (
	"strings"

	"stock-forecaster/internal/models"
)

const (
	// classificationThreshold separates positive/negative from neutral scores.
	classificationThreshold = 0.15
	// densityFactor scales the token count in the score denominator.
	densityFactor = 0.1
)

var positiveWords = newLexicon(
	"buy", "bull", "bullish", "gain", "gains", "growth", "increase", "profit",
	"profits", "rise", "rising", "strong", "up", "upgrade", "positive", "beat",
	"beats", "outperform", "rally", "surge", "soar", "breakthrough", "success",
	"excellent", "outstanding", "boost", "momentum", "optimistic", "confident",
	"expansion", "record", "milestone", "innovation", "partnership",
	"acquisition", "merger", "dividend",
)

var negativeWords = newLexicon(
	"sell", "bear", "bearish", "loss", "losses", "decline", "decrease", "fall",
	"falling", "weak", "down", "downgrade", "negative", "miss", "misses",
	"underperform", "crash", "plunge", "drop", "concern", "worry", "risk",
	"threat", "disappointing", "warning", "cut", "reduce", "layoff",
	"bankruptcy", "debt", "lawsuit", "investigation", "scandal",
)

type lexicon map[string]struct{}

func newLexicon(words ...string) lexicon {
	l := make(lexicon, len(words))
	for _, w := range words {
		l[w] = struct{}{}
	}
	return l
}

func (l lexicon) contains(word string) bool {
	_, ok := l[word]
	return ok
}

// Result is the outcome of scoring a single piece of text.
type Result struct {
	Label models.SentimentLabel `json:"sentiment"`
	Score float64               `json:"score"`
}

// Analyze scores text against the finance lexicons.
// Tokens are whitespace separated and lowercased; punctuation is kept.
func Analyze(text string) Result {
	words := strings.Fields(strings.ToLower(text))

	var positive, negative int
	for _, w := range words {
		if positiveWords.contains(w) {
			positive++
		}
		if negativeWords.contains(w) {
			negative++
		}
	}

	hits := positive + negative
	if hits == 0 {
		return Result{Label: models.SentimentNeutral, Score: 0}
	}

	score := float64(positive-negative) / max(float64(len(words))*densityFactor, float64(hits))

	switch {
	case score > classificationThreshold:
		return Result{Label: models.SentimentPositive, Score: min(score, 1)}
	case score < -classificationThreshold:
		return Result{Label: models.SentimentNegative, Score: max(score, -1)}
	default:
		return Result{Label: models.SentimentNeutral, Score: score}
	}
}

// Annotate returns a copy of items where every unlabelled item has been
// scored from its headline and summary.
func Annotate(items []models.NewsItem) []models.NewsItem {
	out := make([]models.NewsItem, len(items))
	for i, item := range items {
		if item.Sentiment == "" {
			r := Analyze(item.Text())
			item.Sentiment = r.Label
			item.Score = r.Score
		}
		out[i] = item
	}
	return out
}
