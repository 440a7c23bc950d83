package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"stock-forecaster/internal/analysis/regression"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/sentiment"
)

const (
	secondsPerDay     = 24 * 60 * 60
	syntheticNewsGap  = 6 * 60 * 60
	syntheticNewsSize = 8
)

// Synthetic generates plausible market data from a seed table. Every value
// it returns is tagged IsRealData=false. Each call draws from its own source
// derived from the seed, the operation and the symbol, so output for a
// symbol does not depend on the order of concurrent calls.
type Synthetic struct {
	seeds *SeedTable
	seed  int64
	now   func() time.Time
}

// NewSynthetic creates a synthetic provider. A nil seeds uses the built-in
// table and a zero seed is taken from the clock.
func NewSynthetic(seeds *SeedTable, seed int64) *Synthetic {
	if seeds == nil {
		seeds = DefaultSeedTable()
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthetic{seeds: seeds, seed: seed, now: time.Now}
}

func (s *Synthetic) Name() string { return "synthetic" }

// draws is a stream of uniform values for one call.
type draws struct {
	src regression.Source
}

func (s *Synthetic) draws(operation, symbol string) draws {
	h := fnv.New64a()
	h.Write([]byte(operation + ":" + symbol))
	return draws{src: regression.NewSource(s.seed ^ int64(h.Sum64()))}
}

func (d draws) uniform(lo, hi float64) float64 {
	return regression.Uniform(d.src, lo, hi)
}

// Quote returns a quote around the seed price. Most days move less than 2%,
// some up to 5% and a few up to 10%.
func (s *Synthetic) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	seed := s.seeds.Lookup(symbol)
	rnd := s.draws("quote", seed.Symbol)
	base := seed.Price

	var changePercent float64
	switch bucket := rnd.uniform(0, 1); {
	case bucket < 0.6:
		changePercent = rnd.uniform(-2, 2)
	case bucket < 0.9:
		changePercent = rnd.uniform(-5, 5)
	default:
		changePercent = rnd.uniform(-10, 10)
	}

	change := base * changePercent / 100
	price := base + change

	volatility := math.Abs(change) + base*rnd.uniform(0.005, 0.02)
	high := price + rnd.uniform(0, volatility)
	low := price - rnd.uniform(0, volatility)
	open := base + rnd.uniform(-0.25, 0.25)*volatility

	return models.Quote{
		Symbol:        seed.Symbol,
		Price:         round2(price),
		Change:        round2(change),
		ChangePercent: round2(changePercent),
		High:          round2(math.Max(high, math.Max(open, price))),
		Low:           round2(math.Min(low, math.Min(open, price))),
		Open:          round2(open),
		PreviousClose: round2(base),
		Timestamp:     s.now().Unix(),
		IsRealData:    false,
	}, nil
}

// History returns days daily candles ending today. The series follows a
// random 2-5% trend with daily noise and a weekly cycle.
func (s *Synthetic) History(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}

	seed := s.seeds.Lookup(symbol)
	rnd := s.draws("history", seed.Symbol)
	now := s.now().Unix()

	direction := 1.0
	if rnd.uniform(0, 1) <= 0.5 {
		direction = -1
	}
	strength := rnd.uniform(0.02, 0.05)

	points := make([]models.PricePoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		progress := 1.0
		if days > 1 {
			progress = float64(days-1-i) / float64(days-1)
		}

		trend := direction * strength * progress
		noise := rnd.uniform(-0.02, 0.02)
		weekly := math.Sin(progress*math.Pi*4) * 0.01
		dayPrice := seed.Price * (1 + trend + noise + weekly)

		volatility := dayPrice * rnd.uniform(0.005, 0.02)
		open := dayPrice + rnd.uniform(-0.5, 0.5)*volatility
		last := dayPrice + rnd.uniform(-0.5, 0.5)*volatility
		high := math.Max(open, last) + rnd.uniform(0, volatility)
		low := math.Min(open, last) - rnd.uniform(0, volatility)

		move := math.Abs(last-open) / open
		volume := math.Floor(seed.Volume * (1 + move*5) * rnd.uniform(0.5, 1.5))

		points = append(points, models.PricePoint{
			Timestamp:  now - int64(i)*secondsPerDay,
			Open:       round2(open),
			High:       round2(high),
			Low:        round2(low),
			Close:      round2(last),
			Volume:     volume,
			IsRealData: false,
		})
	}
	return points, nil
}

// News returns templated headlines spaced six hours apart, newest first.
func (s *Synthetic) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if len(s.seeds.News) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > syntheticNewsSize {
		limit = syntheticNewsSize
	}

	seed := s.seeds.Lookup(symbol)
	rnd := s.draws("news", seed.Symbol)
	replacer := strings.NewReplacer("{company}", seed.Name)
	now := s.now().Unix()

	items := make([]models.NewsItem, 0, limit)
	for i := 0; i < limit; i++ {
		idx := int(rnd.uniform(0, float64(len(s.seeds.News))))
		if idx >= len(s.seeds.News) {
			idx = len(s.seeds.News) - 1
		}
		tmpl := s.seeds.News[idx]

		items = append(items, models.NewsItem{
			Headline:    replacer.Replace(tmpl.Headline),
			Summary:     replacer.Replace(tmpl.Summary),
			URL:         fmt.Sprintf("https://example.com/news/%s-%d", strings.ToLower(seed.Symbol), i),
			PublishedAt: now - int64(i)*syntheticNewsGap,
			IsRealData:  false,
		})
	}
	return sentiment.Annotate(items), nil
}

// Search matches query against symbols and names in the seed table.
func (s *Synthetic) Search(ctx context.Context, query string, limit int) ([]models.Listing, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var results []models.Listing
	for _, l := range s.seeds.Listings {
		display := displaySymbol(l.Symbol)
		if !strings.Contains(strings.ToLower(l.Symbol), q) &&
			!strings.Contains(strings.ToLower(l.Name), q) &&
			!strings.Contains(strings.ToLower(display), q) {
			continue
		}
		results = append(results, models.Listing{
			Symbol:        l.Symbol,
			Description:   l.Name,
			DisplaySymbol: display,
			Type:          "Common Stock",
			Market:        marketOf(l.Symbol),
			IsRealData:    false,
		})
	}

	// Exact symbol matches first.
	sort.SliceStable(results, func(i, j int) bool {
		return strings.EqualFold(results[i].DisplaySymbol, q) && !strings.EqualFold(results[j].DisplaySymbol, q)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
