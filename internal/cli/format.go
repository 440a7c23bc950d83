package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"stock-forecaster/internal/analysis/indicators"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

const barWidth = 10

// confidenceBar renders a confidence in [0, 1] as a fixed-width bar.
func confidenceBar(confidence float64) string {
	if math.IsNaN(confidence) {
		confidence = 0
	}
	confidence = math.Max(0, math.Min(1, confidence))
	filled := int(math.Round(confidence * barWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// trendArrow describes the direction of a move from base to price.
func trendArrow(base, price float64) string {
	switch {
	case price > base:
		return "↑"
	case price < base:
		return "↓"
	default:
		return "→"
	}
}

// rsiZone classifies an RSI reading.
func rsiZone(rsi float64) string {
	switch {
	case rsi >= 70:
		return "overbought"
	case rsi <= 30:
		return "oversold"
	default:
		return "neutral"
	}
}

// dataSource labels data as live or synthetic.
func dataSource(real bool) string {
	if real {
		return "live"
	}
	return "synthetic"
}

func renderPredictions(out *Output, set models.PredictionSet) {
	meta := set.Metadata
	symbol := meta.Symbol

	title := "Forecast"
	if symbol != "" {
		title += " " + symbol
	}
	out.Bold("%s", title)
	out.Printf("  Current:    %s\n", utils.FormatPrice(symbol, meta.CurrentPrice))
	out.Printf("  Method:     %s\n", meta.Method)
	if len(meta.Models) > 0 {
		fits := make([]string, len(meta.Models))
		for i, m := range meta.Models {
			fits[i] = fmt.Sprintf("%s %.2f", m.Name, m.Quality)
		}
		out.Printf("  Models:     %s\n", strings.Join(fits, ", "))
	}
	out.Printf("  Sentiment:  %s\n", out.Signed(meta.SentimentScore, fmt.Sprintf("%+.3f", meta.SentimentScore)))
	out.Println()

	table := NewTable(out, "DAY", "PRICE", "CHANGE", "", "CONFIDENCE")
	for _, p := range set.Predictions {
		change := utils.FormatChange(meta.CurrentPrice, p.Price)
		table.AddRow(
			fmt.Sprintf("+%d", p.DayOffset),
			utils.FormatPrice(symbol, p.Price),
			out.Signed(p.Price-meta.CurrentPrice, change),
			trendArrow(meta.CurrentPrice, p.Price),
			confidenceBar(p.Confidence)+" "+utils.FormatConfidence(p.Confidence),
		)
	}
	table.Render()
	out.Println()

	q := meta.DataQuality
	out.Dim("Data: quote %s, %d price points (%s), %d news items (%s)",
		dataSource(q.HasRealStock),
		q.HistoricalPoints, dataSource(q.HasRealHistorical),
		q.NewsArticles, dataSource(q.HasRealNews))
}

func renderIndicators(out *Output, symbol string, set indicators.IndicatorSet, points []models.PricePoint) {
	out.Bold("Indicators %s", symbol)
	if n := len(points); n > 0 {
		last := points[n-1]
		out.Printf("  Last close:  %s (%s)\n", utils.FormatPrice(symbol, last.Close), last.Time().UTC().Format(time.DateOnly))
		out.Printf("  Points:      %d\n", n)
	}
	out.Printf("  RSI(14):     %.2f %s\n", set.RSI, out.DimText(rsiZone(set.RSI)))
	out.Printf("  MACD:        %s  signal %.4f  hist %.4f\n",
		out.Signed(set.MACD.MACD, fmt.Sprintf("%.4f", set.MACD.MACD)), set.MACD.Signal, set.MACD.Histogram)
	out.Printf("  Bollinger:   %.2f / %.2f / %.2f\n", set.Bollinger.Upper, set.Bollinger.Middle, set.Bollinger.Lower)
	out.Printf("  Volume:      %s\n", out.Signed(set.VolumeSignal, fmt.Sprintf("%+.1f", set.VolumeSignal)))
}

func renderQuote(out *Output, q models.Quote) {
	out.Bold("%s", q.Symbol)
	out.Printf("  Price:    %s %s\n", utils.FormatPrice(q.Symbol, q.Price),
		out.Signed(q.Change, fmt.Sprintf("%+.2f (%s)", q.Change, utils.FormatPercent(q.ChangePercent))))
	out.Printf("  Open:     %s\n", utils.FormatPrice(q.Symbol, q.Open))
	out.Printf("  Range:    %s - %s\n", utils.FormatPrice(q.Symbol, q.Low), utils.FormatPrice(q.Symbol, q.High))
	out.Printf("  Prev:     %s\n", utils.FormatPrice(q.Symbol, q.PreviousClose))
	out.Dim("Source: %s", dataSource(q.IsRealData))
}

func renderHistory(out *Output, symbol string, points []models.PricePoint) {
	table := NewTable(out, "DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME")
	for _, p := range points {
		table.AddRow(
			p.Time().UTC().Format(time.DateOnly),
			utils.FormatPrice(symbol, p.Open),
			utils.FormatPrice(symbol, p.High),
			utils.FormatPrice(symbol, p.Low),
			utils.FormatPrice(symbol, p.Close),
			utils.FormatVolume(p.Volume),
		)
	}
	table.Render()
}

func renderNews(out *Output, items []models.NewsItem) {
	for _, it := range items {
		when := ""
		if it.PublishedAt > 0 {
			when = time.Unix(it.PublishedAt, 0).UTC().Format("2006-01-02 15:04")
		}
		out.Printf("%s  %s\n", out.SentimentLabel(string(it.Sentiment)), it.Headline)
		out.Dim("    %s  score %+.2f", when, it.Score)
	}
}

func renderListings(out *Output, listings []models.Listing) {
	table := NewTable(out, "SYMBOL", "NAME", "MARKET")
	for _, l := range listings {
		table.AddRow(l.Symbol, l.Description, l.Market)
	}
	table.Render()
}
