// Package models provides domain models for the forecasting application.
package models

import (
	"math"
	"strings"
	"time"
)

// SentimentLabel represents the polarity of a news item.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// PricePoint represents daily OHLCV data.
type PricePoint struct {
	Timestamp  int64   `json:"t"`
	Open       float64 `json:"o"`
	High       float64 `json:"h"`
	Low        float64 `json:"l"`
	Close      float64 `json:"c"`
	Volume     float64 `json:"v"`
	IsRealData bool    `json:"isRealData"`
}

// Time returns the point timestamp as a time.Time.
func (p PricePoint) Time() time.Time {
	return time.Unix(p.Timestamp, 0)
}

// Valid reports whether the point satisfies the OHLCV invariants.
func (p PricePoint) Valid() bool {
	for _, v := range []float64{p.Open, p.High, p.Low, p.Close, p.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if p.Volume < 0 {
		return false
	}
	return p.Low <= math.Min(p.Open, p.Close) && math.Max(p.Open, p.Close) <= p.High
}

// NewsItem represents a news article about a symbol.
type NewsItem struct {
	Headline    string         `json:"headline"`
	Summary     string         `json:"summary"`
	URL         string         `json:"url,omitempty"`
	PublishedAt int64          `json:"datetime"`
	Sentiment   SentimentLabel `json:"sentiment"`
	Score       float64        `json:"score"`
	IsRealData  bool           `json:"isRealData"`
}

// Text returns the text used for sentiment scoring.
func (n NewsItem) Text() string {
	return n.Headline + " " + n.Summary
}

// Quote represents the latest market quote for a symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previousClose"`
	Timestamp     int64   `json:"timestamp"`
	IsRealData    bool    `json:"isRealData"`
}

// Listing is a symbol search result.
type Listing struct {
	Symbol        string `json:"symbol"`
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Type          string `json:"type"`
	Market        string `json:"market"`
	IsRealData    bool   `json:"isRealData"`
}

// Market names used in listings.
const (
	MarketUS    = "US"
	MarketIndia = "India"
)

// IsIndianSymbol reports whether symbol trades on an Indian exchange.
func IsIndianSymbol(symbol string) bool {
	s := strings.ToUpper(symbol)
	return strings.HasSuffix(s, ".NS") || strings.HasSuffix(s, ".BO")
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
